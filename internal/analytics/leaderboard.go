package analytics

import (
	"slices"

	"github.com/abhisek/mathsprint/internal/store"
)

// LeaderboardEntry is one ranked session.
type LeaderboardEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Grade  int    `json:"grade"`
	Streak int    `json:"streak"`
}

// Rank scores every non-empty session at PointsPerCorrect per correct
// answer and sorts by score descending. Equal scores keep session order,
// so the session recorded first ranks first.
func Rank(sessions []store.SessionHistory) []LeaderboardEntry {
	entries := []LeaderboardEntry{}
	for _, h := range sessions {
		meta, ok := MetaFor(h)
		if !ok {
			continue
		}
		correct := 0
		for _, r := range h.Records {
			if r.IsCorrect {
				correct++
			}
		}
		entries = append(entries, LeaderboardEntry{
			ID:     meta.SessionID,
			Name:   PlayerName(meta.SessionID),
			Score:  PointsPerCorrect * correct,
			Grade:  meta.Grade,
			Streak: CurrentStreak(h.Records),
		})
	}
	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		return b.Score - a.Score
	})
	return entries
}
