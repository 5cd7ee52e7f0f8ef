package home

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathsprint/internal/analytics"
	"github.com/abhisek/mathsprint/internal/router"
	"github.com/abhisek/mathsprint/internal/screens/play"
	"github.com/abhisek/mathsprint/internal/screens/stats"
	"github.com/abhisek/mathsprint/internal/session"
)

type emptySource struct{}

func (emptySource) Leaderboard(context.Context) []analytics.LeaderboardEntry { return nil }
func (emptySource) StudentStats(context.Context) []analytics.StudentStats    { return nil }

func noSession(int) (*session.Session, error) { return nil, nil }

func key(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func TestGradeSelection(t *testing.T) {
	tests := []struct {
		name  string
		start int
		keys  []string
		want  int
	}{
		{"default", 0, nil, 1},
		{"right", 3, []string{"right"}, 4},
		{"left", 3, []string{"left", "left"}, 1},
		{"clamped low", 1, []string{"left"}, 1},
		{"clamped high", 6, []string{"right", "right"}, 6},
		{"out of range start", 9, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(noSession, nil, tt.start)
			for _, k := range tt.keys {
				h.Update(key(k))
			}
			if got := h.Grade(); got != tt.want {
				t.Errorf("Grade() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMenuLabels(t *testing.T) {
	h := New(noSession, emptySource{}, 2)
	assert.Equal(t, []string{LabelStart, LabelLeaderboard, LabelDashboard, LabelExit}, h.labels)

	h = New(noSession, nil, 2)
	assert.Equal(t, []string{LabelStart, LabelExit}, h.labels)
}

func TestStartPushesPlay(t *testing.T) {
	var factory play.Factory = noSession
	h := New(factory, nil, 2)
	h.Update(key("right"))

	_, cmd := h.Update(key("enter"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	_, isPlay := msg.Screen.(*play.Screen)
	assert.True(t, isPlay)
}

func TestStartWithoutFactory(t *testing.T) {
	h := New(nil, nil, 2)
	_, cmd := h.Update(key("enter"))
	assert.Nil(t, cmd)
	assert.Contains(t, h.View(80, 24), "No question source")
}

func TestStatsEntries(t *testing.T) {
	h := New(noSession, emptySource{}, 2)
	h.Update(key("down"))
	_, cmd := h.Update(key("enter"))
	require.NotNil(t, cmd)
	msg := cmd().(router.PushScreenMsg)
	assert.Equal(t, "Leaderboard", msg.Screen.Title())

	h.Update(key("down"))
	_, cmd = h.Update(key("enter"))
	msg = cmd().(router.PushScreenMsg)
	assert.Equal(t, "Teacher Dashboard", msg.Screen.(*stats.StatsScreen).Title())
}

func TestView(t *testing.T) {
	h := New(noSession, emptySource{}, 4)
	view := h.View(80, 30)
	for _, want := range []string{"M A T H S P R I N T", "GRADE 4", LabelStart, LabelDashboard} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
