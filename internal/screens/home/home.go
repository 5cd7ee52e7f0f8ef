// Package home is the main menu: pick a grade, then play or look at the
// standings.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/router"
	"github.com/abhisek/mathsprint/internal/screen"
	"github.com/abhisek/mathsprint/internal/screens/play"
	"github.com/abhisek/mathsprint/internal/screens/stats"
	"github.com/abhisek/mathsprint/internal/ui/components"
	"github.com/abhisek/mathsprint/internal/ui/layout"
)

// Menu labels.
const (
	LabelStart       = "START GAME"
	LabelLeaderboard = "LEADERBOARD"
	LabelDashboard   = "TEACHER DASHBOARD"
	LabelExit        = "EXIT"
)

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	menu   components.Menu
	labels []string
	grade  int
	notice string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a HomeScreen. factory starts games; source may be nil, in
// which case the stats entries are hidden.
func New(factory play.Factory, source stats.Source, grade int) *HomeScreen {
	if grade < problemgen.MinGrade || grade > problemgen.MaxGrade {
		grade = problemgen.MinGrade
	}
	h := &HomeScreen{grade: grade}

	items := []components.MenuItem{
		{Label: LabelStart, Action: func() tea.Cmd {
			if factory == nil {
				h.notice = "No question source is configured."
				return nil
			}
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: play.New(factory, h.grade)}
			}
		}},
	}
	if source != nil {
		items = append(items,
			components.MenuItem{Label: LabelLeaderboard, Action: push(source, stats.TabLeaderboard)},
			components.MenuItem{Label: LabelDashboard, Action: push(source, stats.TabStudents)},
		)
	}
	items = append(items, components.MenuItem{Label: LabelExit, Action: func() tea.Cmd { return tea.Quit }})

	h.menu = components.NewMenu(items)
	for _, it := range items {
		h.labels = append(h.labels, it.Label)
	}
	return h
}

// push returns a menu action that opens a fresh stats screen on tab.
func push(source stats.Source, tab stats.Tab) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return router.PushScreenMsg{Screen: stats.New(source, tab)} }
	}
}

// Grade returns the selected grade.
func (h *HomeScreen) Grade() int {
	return h.grade
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "←→", Description: "Grade"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		h.notice = ""
		switch k.String() {
		case "left", "h", "-":
			if h.grade > problemgen.MinGrade {
				h.grade--
			}
			return h, nil
		case "right", "l", "+":
			if h.grade < problemgen.MaxGrade {
				h.grade++
			}
			return h, nil
		}
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := contentWidth(width)
	compact := height < 22

	sections := []string{
		renderTitle(cw),
		renderGradeBar(h.grade, cw),
	}
	if compact {
		sections = append(sections, renderButtonsCompact(h.labels, h.menu.Selected, cw))
	} else {
		sections = append(sections, renderButtons(h.labels, h.menu.Selected, cw))
	}
	if h.notice != "" {
		sections = append(sections, renderNotice(h.notice, cw))
	}

	return renderCabinetFrame(strings.Join(sections, "\n\n"), width, height)
}
