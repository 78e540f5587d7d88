package engine

import (
	"slices"

	"github.com/dancras/tv-quiz-party/internal/lobby"
)

// Rank assigns dense positions by descending score: entries with equal
// scores share a position, and a position is one more than the number of
// distinct strictly higher scores.
func Rank(board map[string]lobby.LeaderboardEntry) {
	scores := make([]int, 0, len(board))
	for _, e := range board {
		if !slices.Contains(scores, e.Score) {
			scores = append(scores, e.Score)
		}
	}
	slices.SortFunc(scores, func(a, b int) int { return b - a })

	for userID, e := range board {
		e.Position = slices.Index(scores, e.Score) + 1
		board[userID] = e
	}
}
