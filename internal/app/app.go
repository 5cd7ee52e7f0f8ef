// Package app hosts the terminal game: the root Bubble Tea model and its
// screen stack.
package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/router"
	"github.com/abhisek/mathsprint/internal/screen"
	"github.com/abhisek/mathsprint/internal/screens/home"
	"github.com/abhisek/mathsprint/internal/screens/play"
	"github.com/abhisek/mathsprint/internal/screens/stats"
	"github.com/abhisek/mathsprint/internal/screens/welcome"
	"github.com/abhisek/mathsprint/internal/ui/layout"
)

// Options configures the terminal game.
type Options struct {
	// Grade preselected on the home screen.
	Grade int

	// Factory creates sessions. A nil factory disables START GAME.
	Factory play.Factory

	// Stats backs the leaderboard and dashboard screens. Optional.
	Stats stats.Source

	// SkipSplash opens the home screen directly.
	SkipSplash bool

	Log *zap.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	log    *zap.Logger
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	homeFactory := func() screen.Screen {
		return home.New(opts.Factory, opts.Stats, opts.Grade)
	}

	var initial screen.Screen
	if opts.SkipSplash {
		initial = homeFactory()
	} else {
		initial = welcome.New(homeFactory)
	}
	return AppModel{
		router: router.New(initial),
		log:    log.Named("tui"),
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.log.Debug("quit requested", zap.Int("depth", m.router.Depth()))
			m.router.Close()
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the frame around the active screen.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	var score, streak int
	showScore := false
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.ScoreProvider); ok {
			score, streak = sp.HeaderScore()
			showScore = true
		}
	}

	header := layout.RenderHeader(title, score, streak, showScore, m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if kp, ok := active.(screen.KeyHintProvider); ok {
		return kp.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
}

// Run starts the Bubble Tea program and blocks until it exits. Any
// running game is ended on the way out.
func Run(opts Options) error {
	model := newAppModel(opts)
	defer model.router.Close()

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
