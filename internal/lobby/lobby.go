// Package lobby holds the session model and the in-memory store that owns
// every live lobby.
package lobby

import (
	"maps"
	"slices"

	"github.com/dancras/tv-quiz-party/internal/profile"
	"github.com/dancras/tv-quiz-party/internal/questions"
)

type LeaderboardEntry struct {
	Score    int `json:"score"`
	Position int `json:"position"`
}

// CurrentQuestion is the single question open for answers. StartTime is unix
// seconds, set a grace period after the question was started so clients can
// run a countdown; nothing in the server schedules off it.
type CurrentQuestion struct {
	Index     int     `json:"i"`
	StartTime float64 `json:"start_time"`
	HasEnded  bool    `json:"has_ended"`
}

// Round is one pass through the question sequence. Questions are fixed once
// the round starts. Answers maps user id to question index to the recorded
// answer string.
type Round struct {
	Questions       []questions.Question        `json:"questions"`
	Answers         map[string]map[int]string   `json:"answers"`
	Leaderboard     map[string]LeaderboardEntry `json:"leaderboard"`
	CurrentQuestion *CurrentQuestion            `json:"current_question"`
}

// Lobby groups a host and joined users under one join code. Version counts
// every mutation and exists for client-side cache invalidation only.
type Lobby struct {
	ID            string                     `json:"id"`
	HostID        string                     `json:"host_id"`
	JoinCode      string                     `json:"join_code"`
	Users         map[string]profile.Profile `json:"users"`
	Version       int                        `json:"version"`
	Round         *Round                     `json:"round"`
	PreviousRound *Round                     `json:"previous_round"`
}

// Clone returns a snapshot safe to use outside the store's edit scope.
func (l *Lobby) Clone() *Lobby {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Users = maps.Clone(l.Users)
	cp.Round = l.Round.Clone()
	cp.PreviousRound = l.PreviousRound.Clone()
	return &cp
}

func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Questions = slices.Clone(r.Questions)
	cp.Answers = make(map[string]map[int]string, len(r.Answers))
	for userID, byQuestion := range r.Answers {
		cp.Answers[userID] = maps.Clone(byQuestion)
	}
	cp.Leaderboard = maps.Clone(r.Leaderboard)
	if r.CurrentQuestion != nil {
		q := *r.CurrentQuestion
		cp.CurrentQuestion = &q
	}
	return &cp
}
