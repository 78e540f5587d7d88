// Package engine implements the round and question state machine. Every
// function here mutates a lobby and must run inside the store's edit scope.
package engine

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/dancras/tv-quiz-party/internal/lobby"
	"github.com/dancras/tv-quiz-party/internal/profile"
	"github.com/dancras/tv-quiz-party/internal/questions"
)

// ErrInvalidTransition marks every out-of-sequence round or question
// operation. Match with errors.Is; the concrete *TransitionError names the
// expected and actual state.
var ErrInvalidTransition = errors.New("invalid transition")

type TransitionError struct {
	Op       string
	Expected string
	Actual   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Op, e.Expected, e.Actual)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// StartRound creates a fresh round over the full question sequence, with
// empty answer maps and a zeroed leaderboard for every current user.
func StartRound(lb *lobby.Lobby, qs []questions.Question) (*lobby.Round, error) {
	if lb.Round != nil {
		return nil, &TransitionError{Op: "start_round", Expected: "no active round", Actual: "round in progress"}
	}

	answers := make(map[string]map[int]string, len(lb.Users))
	board := make(map[string]lobby.LeaderboardEntry, len(lb.Users))
	for userID := range lb.Users {
		answers[userID] = make(map[int]string)
		board[userID] = lobby.LeaderboardEntry{Score: 0, Position: 1}
	}

	lb.Round = &lobby.Round{
		Questions:   qs,
		Answers:     answers,
		Leaderboard: board,
	}
	return lb.Round, nil
}

// StartQuestion opens question index for answers. Questions run strictly in
// sequence: index 0 first, then index n only after question n-1 has ended.
// The advertised start time is now plus the grace period.
func StartQuestion(lb *lobby.Lobby, index int, grace time.Duration) (*lobby.CurrentQuestion, error) {
	r := lb.Round
	if r == nil {
		return nil, &TransitionError{Op: "start_question", Expected: "an active round", Actual: "no round"}
	}
	cur := r.CurrentQuestion
	switch {
	case cur == nil && index != 0:
		return nil, &TransitionError{
			Op:       "start_question",
			Expected: "question_index 0 for the first question",
			Actual:   fmt.Sprintf("question_index %d", index),
		}
	case cur != nil && !cur.HasEnded:
		return nil, &TransitionError{
			Op:       "start_question",
			Expected: fmt.Sprintf("question %d to have ended", cur.Index),
			Actual:   "still open",
		}
	case cur != nil && index != cur.Index+1:
		return nil, &TransitionError{
			Op:       "start_question",
			Expected: fmt.Sprintf("question_index %d, the next in the sequence", cur.Index+1),
			Actual:   fmt.Sprintf("question_index %d", index),
		}
	case index >= len(r.Questions):
		return nil, &TransitionError{
			Op:       "start_question",
			Expected: fmt.Sprintf("question_index below %d", len(r.Questions)),
			Actual:   fmt.Sprintf("question_index %d", index),
		}
	}

	r.CurrentQuestion = &lobby.CurrentQuestion{
		Index:     index,
		StartTime: unixSeconds(time.Now().Add(grace)),
	}
	return r.CurrentQuestion, nil
}

// AnswerQuestion records a user's answer to the open question. Answers may
// be overwritten until the question ends.
func AnswerQuestion(lb *lobby.Lobby, userID string, index int, answer string) error {
	r := lb.Round
	if r == nil || r.CurrentQuestion == nil || r.CurrentQuestion.Index != index || r.CurrentQuestion.HasEnded {
		return &TransitionError{
			Op:       "answer_question",
			Expected: fmt.Sprintf("question %d to be open", index),
			Actual:   describeCurrent(r),
		}
	}
	if r.Answers[userID] == nil {
		r.Answers[userID] = make(map[int]string)
	}
	r.Answers[userID][index] = answer
	return nil
}

// EndResult is what EndQuestion hands back for broadcasting.
type EndResult struct {
	Leaderboard map[string]lobby.LeaderboardEntry
	// RoundEnded is set when the final question ended; Round then holds the
	// finished round, already moved into the lobby's previous_round.
	RoundEnded bool
	Round      *lobby.Round
}

// EndQuestion seals the open question, scores every user's recorded answer
// against the correct one by exact string equality, and recomputes positions.
// Ending the final question retires the round into previous_round.
func EndQuestion(lb *lobby.Lobby, index int) (EndResult, error) {
	r := lb.Round
	if r == nil || r.CurrentQuestion == nil || r.CurrentQuestion.Index != index || r.CurrentQuestion.HasEnded {
		return EndResult{}, &TransitionError{
			Op:       "end_question",
			Expected: fmt.Sprintf("question %d to be open", index),
			Actual:   describeCurrent(r),
		}
	}

	r.CurrentQuestion.HasEnded = true

	correct := r.Questions[index].CorrectAnswer
	for userID := range lb.Users {
		if answer, ok := r.Answers[userID][index]; ok && answer == correct {
			e := r.Leaderboard[userID]
			e.Score++
			r.Leaderboard[userID] = e
		}
	}
	Rank(r.Leaderboard)

	res := EndResult{Leaderboard: maps.Clone(r.Leaderboard)}
	if index == len(r.Questions)-1 {
		lb.PreviousRound = r
		lb.Round = nil
		res.RoundEnded = true
		res.Round = r.Clone()
	}
	return res, nil
}

// AddUser joins a user to the lobby. A user joining mid-round starts at
// score 0 and positions are recomputed immediately.
func AddUser(lb *lobby.Lobby, p profile.Profile) error {
	if _, ok := lb.Users[p.ID]; ok {
		return lobby.ErrConflict
	}
	lb.Users[p.ID] = p
	if r := lb.Round; r != nil {
		r.Answers[p.ID] = make(map[int]string)
		r.Leaderboard[p.ID] = lobby.LeaderboardEntry{Score: 0, Position: 1}
		Rank(r.Leaderboard)
	}
	return nil
}

// RemoveUser drops a user from the lobby and, when a round is active, from
// its leaderboard and answer store, so the leaderboard always mirrors the
// current membership.
func RemoveUser(lb *lobby.Lobby, userID string) {
	delete(lb.Users, userID)
	if r := lb.Round; r != nil {
		delete(r.Leaderboard, userID)
		delete(r.Answers, userID)
		Rank(r.Leaderboard)
	}
}

func describeCurrent(r *lobby.Round) string {
	switch {
	case r == nil:
		return "no active round"
	case r.CurrentQuestion == nil:
		return "no current question"
	case r.CurrentQuestion.HasEnded:
		return fmt.Sprintf("question %d already ended", r.CurrentQuestion.Index)
	default:
		return fmt.Sprintf("current question is %d", r.CurrentQuestion.Index)
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
