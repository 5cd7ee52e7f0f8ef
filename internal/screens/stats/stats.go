// Package stats shows the leaderboard and the teacher dashboard.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsprint/internal/analytics"
	"github.com/abhisek/mathsprint/internal/router"
	"github.com/abhisek/mathsprint/internal/screen"
	"github.com/abhisek/mathsprint/internal/ui/layout"
	"github.com/abhisek/mathsprint/internal/ui/theme"
)

// Source provides the projections shown on this screen. Both methods
// return empty slices on failure.
type Source interface {
	Leaderboard(ctx context.Context) []analytics.LeaderboardEntry
	StudentStats(ctx context.Context) []analytics.StudentStats
}

// Tab selects the table on screen.
type Tab int

const (
	TabLeaderboard Tab = iota
	TabStudents
)

type loadedMsg struct {
	Leaderboard []analytics.LeaderboardEntry
	Students    []analytics.StudentStats
}

// StatsScreen displays the leaderboard or the per-student dashboard.
type StatsScreen struct {
	source      Source
	tab         Tab
	leaderboard []analytics.LeaderboardEntry
	students    []analytics.StudentStats
	selected    int
	expanded    map[int]bool
	loaded      bool
}

var _ screen.Screen = (*StatsScreen)(nil)
var _ screen.KeyHintProvider = (*StatsScreen)(nil)

// New creates a StatsScreen opened on tab.
func New(source Source, tab Tab) *StatsScreen {
	return &StatsScreen{
		source:   source,
		tab:      tab,
		expanded: make(map[int]bool),
	}
}

func (s *StatsScreen) Init() tea.Cmd {
	source := s.source
	return func() tea.Msg {
		ctx := context.Background()
		return loadedMsg{
			Leaderboard: source.Leaderboard(ctx),
			Students:    source.StudentStats(ctx),
		}
	}
}

func (s *StatsScreen) Title() string {
	if s.tab == TabStudents {
		return "Teacher Dashboard"
	}
	return "Leaderboard"
}

func (s *StatsScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Tab", Description: "Switch view"}}
	if s.tab == TabStudents {
		hints = append(hints,
			layout.KeyHint{Key: "Enter", Description: "Details"},
			layout.KeyHint{Key: "↑↓", Description: "Navigate"},
		)
	}
	hints = append(hints,
		layout.KeyHint{Key: "R", Description: "Refresh"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
	return hints
}

func (s *StatsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.leaderboard = msg.Leaderboard
		s.students = msg.Students
		s.selected = min(s.selected, max(len(s.students)-1, 0))
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab":
			if s.tab == TabLeaderboard {
				s.tab = TabStudents
			} else {
				s.tab = TabLeaderboard
			}
			return s, nil
		case "r":
			s.loaded = false
			return s, s.Init()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.students)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if s.tab == TabStudents {
				s.expanded[s.selected] = !s.expanded[s.selected]
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *StatsScreen) View(width, height int) string {
	if !s.loaded {
		return dim(width, "\n\n  Loading...")
	}
	if s.tab == TabStudents {
		return s.renderStudents(width)
	}
	return s.renderLeaderboard(width)
}

func (s *StatsScreen) renderLeaderboard(width int) string {
	if len(s.leaderboard) == 0 {
		return dim(width, "\n\n  No scores yet. Be the first to play!")
	}

	var b strings.Builder
	b.WriteString("\n")
	header := fmt.Sprintf("%-4s %-16s %7s %6s %7s", "#", "Player", "Score", "Grade", "Streak")
	b.WriteString(layout.Center(width, lipgloss.NewStyle().Foreground(theme.TextDim).Render(header)))
	b.WriteString("\n")

	for i, e := range s.leaderboard {
		line := fmt.Sprintf("%-4d %-16s %7d %6d %7d", i+1, e.Name, e.Score, e.Grade, e.Streak)
		style := theme.Body
		if i < 3 {
			style = theme.Score
		}
		b.WriteString(layout.Center(width, style.Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *StatsScreen) renderStudents(width int) string {
	if len(s.students) == 0 {
		return dim(width, "\n\n  No students have played yet.")
	}

	var b strings.Builder
	b.WriteString("\n")
	header := fmt.Sprintf("  %-16s %5s %9s %8s %7s %8s", "Student", "Grade", "Questions", "Accuracy", "Streak", "Avg time")
	b.WriteString(layout.Center(width, lipgloss.NewStyle().Foreground(theme.TextDim).Render(header)))
	b.WriteString("\n")

	for i, st := range s.students {
		prefix := "  "
		style := theme.Body
		if i == s.selected {
			prefix = "> "
			style = theme.Selected
		}
		line := fmt.Sprintf("%s%-16s %5d %9d %7.0f%% %7d %7.1fs",
			prefix, st.Name, st.Grade, st.TotalQuestions, accuracy(st), st.CurrentStreak, st.AverageTime)
		b.WriteString(layout.Center(width, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(renderDetails(width, st))
		}
	}
	return b.String()
}

func renderDetails(width int, st analytics.StudentStats) string {
	var b strings.Builder
	detail := lipgloss.NewStyle().Foreground(theme.TextDim)

	weak := "none"
	if len(st.WeakAreas) > 0 {
		names := make([]string, len(st.WeakAreas))
		for i, op := range st.WeakAreas {
			names[i] = string(op)
		}
		weak = strings.Join(names, ", ")
	}
	b.WriteString(layout.Center(width, detail.Render(fmt.Sprintf("    Best streak %d   Needs practice: %s", st.BestStreak, weak))))
	b.WriteString("\n")

	for _, a := range st.RecentActivity {
		mark := theme.Correct.Render("✓")
		if !a.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		line := fmt.Sprintf("    %s %s = %d  (%.1fs)", mark, a.Question, a.Answer, a.TimeSpent)
		b.WriteString(layout.Center(width, detail.Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}

func accuracy(st analytics.StudentStats) float64 {
	if st.TotalQuestions == 0 {
		return 0
	}
	return float64(st.CorrectAnswers) / float64(st.TotalQuestions) * 100
}

func dim(width int, text string) string {
	return lipgloss.NewStyle().
		Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
		Render(text)
}
