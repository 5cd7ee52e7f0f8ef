package session

import (
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/store"
)

const (
	// PointsPerAnswer is multiplied by the streak length, including the
	// answer being scored.
	PointsPerAnswer = 10

	// PointsPerLevel is the score needed to advance one level.
	PointsPerLevel = 100
)

// Scoreboard tracks score, streak and level across a session.
type Scoreboard struct {
	Score          int     `json:"score"`
	Streak         int     `json:"streak"`
	BestStreak     int     `json:"bestStreak"`
	Level          int     `json:"level"`
	Progress       float64 `json:"progress"`
	TotalQuestions int     `json:"totalQuestions"`
	CorrectAnswers int     `json:"correctAnswers"`
}

// NewScoreboard returns a scoreboard at level 1.
func NewScoreboard() Scoreboard {
	return Scoreboard{Level: 1}
}

// Evaluate reports whether answer is correct for q. The timeout sentinel
// is never correct.
func Evaluate(q *problemgen.Question, answer int) bool {
	return answer != store.TimeoutAnswer && answer == q.Answer
}

// Award returns the points for a correct answer given the streak before it.
func Award(streak int) int {
	return PointsPerAnswer * (streak + 1)
}

// LevelFor returns the level reached at score.
func LevelFor(score int) int {
	return score/PointsPerLevel + 1
}

// Apply records one answer. Score only changes on a correct answer; an
// incorrect one resets the streak.
func (b *Scoreboard) Apply(correct bool) {
	b.TotalQuestions++
	if correct {
		b.Score += Award(b.Streak)
		b.Streak++
		b.CorrectAnswers++
		b.BestStreak = max(b.BestStreak, b.Streak)
	} else {
		b.Streak = 0
	}
	b.Level = LevelFor(b.Score)
	b.Progress = min(100, float64(b.CorrectAnswers)/float64(b.TotalQuestions)*100)
}

// Accuracy returns the fraction of correct answers, or 0 before any answer.
func (b Scoreboard) Accuracy() float64 {
	if b.TotalQuestions == 0 {
		return 0
	}
	return float64(b.CorrectAnswers) / float64(b.TotalQuestions)
}
