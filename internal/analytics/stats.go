// Package analytics derives per-session statistics and the leaderboard from
// recorded answers. Every function is a pure function of the records it is
// given.
package analytics

import (
	"math"
	"slices"
	"time"

	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/store"
)

const (
	// RecentActivityLimit is the number of most recent answers reported.
	RecentActivityLimit = 10

	// WeakAreaMinAttempts is the number of attempts needed before an
	// operation can be flagged as weak.
	WeakAreaMinAttempts = 3

	// WeakAreaThreshold is the accuracy below which an operation is weak.
	WeakAreaThreshold = 0.7

	// PointsPerCorrect is the flat historical score per correct answer.
	PointsPerCorrect = 10

	dateLayout = "2006-01-02"
)

// Activity is one answer as shown in recent activity.
type Activity struct {
	Question  string    `json:"question"`
	Answer    int       `json:"answer"`
	Correct   bool      `json:"correct"`
	TimeSpent float64   `json:"timeSpent"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyProgress summarizes the answers of one UTC calendar day.
type DailyProgress struct {
	Date     string `json:"date"`
	Score    int    `json:"score"`
	Accuracy int    `json:"accuracy"`
}

// StudentStats is the dashboard view of one session.
type StudentStats struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	Grade            int                    `json:"grade"`
	TotalQuestions   int                    `json:"totalQuestions"`
	CorrectAnswers   int                    `json:"correctAnswers"`
	CurrentStreak    int                    `json:"currentStreak"`
	BestStreak       int                    `json:"bestStreak"`
	AverageTime      float64                `json:"averageTime"`
	WeakAreas        []problemgen.Operation `json:"weakAreas"`
	RecentActivity   []Activity             `json:"recentActivity"`
	ProgressOverTime []DailyProgress        `json:"progressOverTime"`
}

// SessionMeta describes a session as of its first recorded answer.
type SessionMeta struct {
	SessionID string
	Grade     int
	StartedAt time.Time
}

// MetaFor derives the meta of a session from its first record. It reports
// false for an empty history.
func MetaFor(h store.SessionHistory) (SessionMeta, bool) {
	if len(h.Records) == 0 {
		return SessionMeta{}, false
	}
	first := h.Records[0]
	return SessionMeta{
		SessionID: h.SessionID,
		Grade:     first.Grade,
		StartedAt: first.Timestamp.UTC(),
	}, true
}

// StudentName is the dashboard display name for a session.
func StudentName(sessionID string) string {
	return "Student " + shortID(sessionID)
}

// PlayerName is the leaderboard display name for a session.
func PlayerName(sessionID string) string {
	return "Player " + shortID(sessionID)
}

func shortID(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[len(id)-4:]
}

// Aggregate computes the statistics of one session. history must be in
// submission order. It reports false for an empty history.
func Aggregate(history []store.AnswerRecord, meta SessionMeta) (StudentStats, bool) {
	if len(history) == 0 {
		return StudentStats{}, false
	}

	var (
		correct int
		spent   float64
	)
	for _, r := range history {
		if r.IsCorrect {
			correct++
		}
		spent += r.TimeSpent
	}
	avg := spent / float64(len(history))

	return StudentStats{
		ID:               meta.SessionID,
		Name:             StudentName(meta.SessionID),
		Grade:            meta.Grade,
		TotalQuestions:   len(history),
		CorrectAnswers:   correct,
		CurrentStreak:    CurrentStreak(history),
		BestStreak:       BestStreak(history),
		AverageTime:      math.Round(avg*10) / 10,
		WeakAreas:        WeakAreas(history),
		RecentActivity:   RecentActivity(history),
		ProgressOverTime: ProgressOverTime(history),
	}, true
}

// StudentStatsFor aggregates every non-empty session, ordered by correct
// answers descending. Sessions with equal counts keep their input order.
func StudentStatsFor(sessions []store.SessionHistory) []StudentStats {
	stats := []StudentStats{}
	for _, h := range sessions {
		meta, ok := MetaFor(h)
		if !ok {
			continue
		}
		if s, ok := Aggregate(h.Records, meta); ok {
			stats = append(stats, s)
		}
	}
	slices.SortStableFunc(stats, func(a, b StudentStats) int {
		return b.CorrectAnswers - a.CorrectAnswers
	})
	return stats
}

// CurrentStreak counts the consecutive correct answers at the end of
// history.
func CurrentStreak(history []store.AnswerRecord) int {
	n := 0
	for i := len(history) - 1; i >= 0 && history[i].IsCorrect; i-- {
		n++
	}
	return n
}

// BestStreak returns the longest run of consecutive correct answers.
func BestStreak(history []store.AnswerRecord) int {
	best, run := 0, 0
	for _, r := range history {
		if r.IsCorrect {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return best
}

// WeakAreas returns the operations attempted at least WeakAreaMinAttempts
// times with accuracy below WeakAreaThreshold, in canonical order.
func WeakAreas(history []store.AnswerRecord) []problemgen.Operation {
	type tally struct{ total, correct int }
	byOp := make(map[problemgen.Operation]*tally)
	for _, r := range history {
		t := byOp[r.Operation]
		if t == nil {
			t = &tally{}
			byOp[r.Operation] = t
		}
		t.total++
		if r.IsCorrect {
			t.correct++
		}
	}

	weak := []problemgen.Operation{}
	for _, op := range problemgen.Operations {
		t := byOp[op]
		if t == nil || t.total < WeakAreaMinAttempts {
			continue
		}
		if float64(t.correct)/float64(t.total) < WeakAreaThreshold {
			weak = append(weak, op)
		}
	}
	return weak
}

// RecentActivity returns the last RecentActivityLimit answers in
// chronological order.
func RecentActivity(history []store.AnswerRecord) []Activity {
	start := max(0, len(history)-RecentActivityLimit)
	out := make([]Activity, 0, len(history)-start)
	for _, r := range history[start:] {
		out = append(out, Activity{
			Question:  r.QuestionText,
			Answer:    r.UserAnswer,
			Correct:   r.IsCorrect,
			TimeSpent: r.TimeSpent,
			Timestamp: r.Timestamp.UTC(),
		})
	}
	return out
}

// ProgressOverTime buckets answers by UTC date, ascending.
func ProgressOverTime(history []store.AnswerRecord) []DailyProgress {
	type bucket struct{ total, correct int }
	byDate := make(map[string]*bucket)
	for _, r := range history {
		date := r.Timestamp.UTC().Format(dateLayout)
		b := byDate[date]
		if b == nil {
			b = &bucket{}
			byDate[date] = b
		}
		b.total++
		if r.IsCorrect {
			b.correct++
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	out := make([]DailyProgress, 0, len(dates))
	for _, d := range dates {
		b := byDate[d]
		out = append(out, DailyProgress{
			Date:     d,
			Score:    PointsPerCorrect * b.correct,
			Accuracy: int(math.Round(float64(b.correct) / float64(b.total) * 100)),
		})
	}
	return out
}
