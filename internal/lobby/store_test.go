package lobby

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dancras/tv-quiz-party/internal/profile"
)

func TestCreateAndRead(t *testing.T) {
	s := NewStore()
	created := s.Create(profile.Bare("host"))

	if created.Version != 1 {
		t.Fatalf("new lobby version: got %d, want 1", created.Version)
	}
	if created.HostID != "host" {
		t.Fatalf("host_id: got %q", created.HostID)
	}
	if _, ok := created.Users["host"]; !ok {
		t.Fatal("host must be seeded into users")
	}
	if len(created.JoinCode) != joinCodeLength {
		t.Fatalf("join code %q has wrong length", created.JoinCode)
	}

	byID, err := s.Read(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	byCode, err := s.Read(created.JoinCode)
	if err != nil {
		t.Fatal(err)
	}
	if byID.ID != created.ID || byCode.ID != created.ID {
		t.Fatal("id and join code must resolve to the same lobby")
	}
}

func TestReadUnknown(t *testing.T) {
	s := NewStore()
	if _, err := s.Read("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateBumpsVersionOncePerCall(t *testing.T) {
	s := NewStore()
	lb := s.Create(profile.Bare("host"))

	updated, err := s.Update(lb.ID, func(l *Lobby) error {
		l.Users["u2"] = profile.Bare("u2")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Version != 2 {
		t.Fatalf("after one update: version %d, want 2", updated.Version)
	}

	// A failed edit must not bump the version.
	boom := errors.New("boom")
	if _, err := s.Update(lb.ID, func(*Lobby) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("want fn error back, got %v", err)
	}
	after, err := s.Read(lb.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Version != 2 {
		t.Fatalf("failed edit bumped version to %d", after.Version)
	}
}

func TestUpdateSerializesConcurrentEdits(t *testing.T) {
	s := NewStore()
	lb := s.Create(profile.Bare("host"))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("u%d", i)
			_, err := s.Update(lb.ID, func(l *Lobby) error {
				l.Users[id] = profile.Bare(id)
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	after, err := s.Read(lb.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Version != 1+n {
		t.Fatalf("version %d, want %d", after.Version, 1+n)
	}
	if len(after.Users) != 1+n {
		t.Fatalf("users %d, want %d", len(after.Users), 1+n)
	}
}

func TestReadReturnsSnapshot(t *testing.T) {
	s := NewStore()
	lb := s.Create(profile.Bare("host"))

	snap, err := s.Read(lb.ID)
	if err != nil {
		t.Fatal(err)
	}
	snap.Users["intruder"] = profile.Bare("intruder")

	again, err := s.Read(lb.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := again.Users["intruder"]; ok {
		t.Fatal("mutating a snapshot leaked into the store")
	}
}

func TestDelete(t *testing.T) {
	s := NewStore()
	lb := s.Create(profile.Bare("host"))

	if err := s.Delete(lb.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(lb.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("read after delete: want ErrNotFound, got %v", err)
	}
	if _, err := s.Read(lb.JoinCode); !errors.Is(err, ErrNotFound) {
		t.Fatalf("join code must be freed, got %v", err)
	}
	if _, err := s.Update(lb.ID, func(*Lobby) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update after delete: want ErrNotFound, got %v", err)
	}
	if err := s.Delete(lb.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}
