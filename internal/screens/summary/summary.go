// Package summary shows the results of a finished session.
package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsprint/internal/router"
	"github.com/abhisek/mathsprint/internal/screen"
	"github.com/abhisek/mathsprint/internal/session"
	"github.com/abhisek/mathsprint/internal/ui/layout"
	"github.com/abhisek/mathsprint/internal/ui/theme"
)

// Result is what the summary screen displays.
type Result struct {
	session.Summary
	Grade int
}

// SummaryScreen displays the session summary.
type SummaryScreen struct {
	result Result
	again  func() screen.Screen
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)
var _ screen.ScoreProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen. again builds the screen for another
// round; nil disables replay.
func New(result Result, again func() screen.Screen) *SummaryScreen {
	return &SummaryScreen{result: result, again: again}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Game Over"
}

func (s *SummaryScreen) HeaderScore() (int, int) {
	return s.result.Score, 0
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	if s.again == nil {
		return []layout.KeyHint{{Key: "Esc", Description: "Home"}}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Play again"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "enter", "r":
		if s.again != nil {
			next := s.again()
			return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "esc", "q":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	r := s.result
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(center(width, theme.Title, headline(r)))
	b.WriteString("\n\n")

	mins := int(r.Duration.Minutes())
	secs := int(r.Duration.Seconds()) % 60
	b.WriteString(center(width, theme.Subtitle, fmt.Sprintf("Grade %d   Time %d:%02d", r.Grade, mins, secs)))
	b.WriteString("\n\n")

	rows := [][2]string{
		{"Score", fmt.Sprintf("%d", r.Score)},
		{"Level reached", fmt.Sprintf("%d", r.Level)},
		{"Questions", fmt.Sprintf("%d", r.TotalQuestions)},
		{"Correct", fmt.Sprintf("%d", r.CorrectAnswers)},
		{"Accuracy", fmt.Sprintf("%.0f%%", r.Accuracy*100)},
		{"Best streak", fmt.Sprintf("%d", r.BestStreak)},
	}

	var card strings.Builder
	for i, row := range rows {
		if i > 0 {
			card.WriteString("\n")
		}
		label := lipgloss.NewStyle().Foreground(theme.TextDim).Width(16).Render(row[0])
		card.WriteString(label + theme.Body.Bold(true).Render(row[1]))
	}
	b.WriteString(layout.Center(width, theme.Card.Render(card.String())))

	return b.String()
}

// headline picks the title line for a result.
func headline(r Result) string {
	switch {
	case r.TotalQuestions == 0:
		return "See you next time!"
	case r.Accuracy >= 0.9:
		return "Amazing work!"
	case r.Accuracy >= 0.7:
		return "Great job!"
	default:
		return "Nice try, keep practicing!"
	}
}

func center(width int, style lipgloss.Style, text string) string {
	return style.Width(width).Align(lipgloss.Center).Render(text)
}
