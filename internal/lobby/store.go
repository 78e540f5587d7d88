package lobby

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sync"

	"github.com/google/uuid"

	"github.com/dancras/tv-quiz-party/internal/profile"
)

var (
	ErrNotFound = errors.New("lobby not found")
	ErrConflict = errors.New("user already in lobby")
)

const joinCodeLength = 6

// entry pairs a lobby with the mutex that serializes edits to it. The join
// code never changes after creation.
type entry struct {
	code string

	mu    sync.Mutex
	lobby *Lobby // nil once deleted
}

// Store owns the table of live lobbies, addressable by id or join code.
// Mutation is serialized per lobby, never globally: the table lock only
// guards the maps themselves.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*entry
	byCode  map[string]*entry
}

func NewStore() *Store {
	return &Store{
		byID:   make(map[string]*entry),
		byCode: make(map[string]*entry),
	}
}

// Create allocates a lobby with the host as its only user.
func (s *Store) Create(host profile.Profile) *Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()

	var code string
	for {
		code = generateJoinCode()
		if _, taken := s.byCode[code]; !taken {
			break
		}
	}

	lb := &Lobby{
		ID:       uuid.NewString(),
		HostID:   host.ID,
		JoinCode: code,
		Users:    map[string]profile.Profile{host.ID: host},
		Version:  1,
	}
	e := &entry{code: code, lobby: lb}
	s.byID[lb.ID] = e
	s.byCode[code] = e
	return lb.Clone()
}

// Read returns a snapshot of the lobby with the given id or join code.
func (s *Store) Read(idOrCode string) (*Lobby, error) {
	e, ok := s.lookup(idOrCode)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lobby == nil {
		return nil, ErrNotFound
	}
	return e.lobby.Clone(), nil
}

// Update is the edit scope: it runs fn with exclusive access to the lobby
// and bumps the version exactly once when fn succeeds. The returned lobby
// is a post-edit snapshot.
func (s *Store) Update(idOrCode string, fn func(*Lobby) error) (*Lobby, error) {
	e, ok := s.lookup(idOrCode)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lobby == nil {
		// Deleted while we waited on the lock.
		return nil, ErrNotFound
	}
	if err := fn(e.lobby); err != nil {
		return nil, err
	}
	e.lobby.Version++
	return e.lobby.Clone(), nil
}

// Delete removes the lobby and frees its join code.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byCode, e.code)
	s.mu.Unlock()

	// Fail any edit still waiting on this lobby.
	e.mu.Lock()
	e.lobby = nil
	e.mu.Unlock()
	return nil
}

func (s *Store) lookup(idOrCode string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.byID[idOrCode]; ok {
		return e, true
	}
	e, ok := s.byCode[idOrCode]
	return e, ok
}

func generateJoinCode() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, joinCodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			panic("lobby: crypto/rand failed: " + err.Error())
		}
		code[i] = charset[num.Int64()]
	}
	return string(code)
}
