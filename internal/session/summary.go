package session

import "time"

// Summary holds the data displayed when a session ends.
type Summary struct {
	Duration       time.Duration
	TotalQuestions int
	CorrectAnswers int
	Accuracy       float64
	Score          int
	BestStreak     int
	Level          int
}

// BuildSummary creates a Summary from a snapshot taken at end.
func BuildSummary(snap Snapshot, end time.Time) Summary {
	var d time.Duration
	if !snap.StartedAt.IsZero() && end.After(snap.StartedAt) {
		d = end.Sub(snap.StartedAt)
	}
	return Summary{
		Duration:       d,
		TotalQuestions: snap.TotalQuestions,
		CorrectAnswers: snap.CorrectAnswers,
		Accuracy:       snap.Scoreboard.Accuracy(),
		Score:          snap.Score,
		BestStreak:     snap.BestStreak,
		Level:          snap.Level,
	}
}
