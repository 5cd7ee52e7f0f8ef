package summary

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathsprint/internal/router"
	"github.com/abhisek/mathsprint/internal/screen"
	"github.com/abhisek/mathsprint/internal/session"
)

func testResult() Result {
	return Result{
		Summary: session.Summary{
			Duration:       3*time.Minute + 7*time.Second,
			TotalQuestions: 14,
			CorrectAnswers: 11,
			Accuracy:       float64(11) / float64(14),
			Score:          230,
			BestStreak:     6,
			Level:          3,
		},
		Grade: 2,
	}
}

type stubScreen struct{}

func (stubScreen) Init() tea.Cmd                           { return nil }
func (stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return stubScreen{}, nil }
func (stubScreen) View(int, int) string                    { return "" }
func (stubScreen) Title() string                           { return "Play" }

func TestSummaryScreen_Title(t *testing.T) {
	s := New(testResult(), nil)
	if s.Title() != "Game Over" {
		t.Errorf("Title = %q, want %q", s.Title(), "Game Over")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	s := New(testResult(), nil)
	view := s.View(80, 24)
	for _, want := range []string{"Great job!", "230", "79%", "3:07", "Grade 2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		total    int
		accuracy float64
		want     string
	}{
		{0, 0, "See you next time!"},
		{10, 0.95, "Amazing work!"},
		{10, 0.7, "Great job!"},
		{10, 0.3, "Nice try, keep practicing!"},
	}
	for _, tt := range tests {
		r := Result{Summary: session.Summary{TotalQuestions: tt.total, Accuracy: tt.accuracy}}
		if got := headline(r); got != tt.want {
			t.Errorf("headline(%d, %.2f) = %q, want %q", tt.total, tt.accuracy, got, tt.want)
		}
	}
}

func TestSummaryScreen_PlayAgain(t *testing.T) {
	s := New(testResult(), func() screen.Screen { return stubScreen{} })
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("Enter produced %T, want router.ReplaceScreenMsg", cmd())
	}
	if msg.Screen.Title() != "Play" {
		t.Errorf("replacement title = %q, want %q", msg.Screen.Title(), "Play")
	}
}

func TestSummaryScreen_Esc(t *testing.T) {
	s := New(testResult(), func() screen.Screen { return stubScreen{} })
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a command on Esc")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("Esc should pop back home")
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	if got := len(New(testResult(), nil).KeyHints()); got != 1 {
		t.Errorf("KeyHints without replay = %d, want 1", got)
	}
	if got := len(New(testResult(), func() screen.Screen { return stubScreen{} }).KeyHints()); got != 2 {
		t.Errorf("KeyHints with replay = %d, want 2", got)
	}
}
