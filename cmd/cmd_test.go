package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/analytics"
	"github.com/abhisek/mathsprint/internal/problemgen"
)

type fakeStats struct {
	board    []analytics.LeaderboardEntry
	students []analytics.StudentStats
}

func (f fakeStats) Leaderboard(context.Context) []analytics.LeaderboardEntry { return f.board }
func (f fakeStats) StudentStats(context.Context) []analytics.StudentStats    { return f.students }

func sampleStats() fakeStats {
	return fakeStats{
		board: []analytics.LeaderboardEntry{
			{ID: "a", Name: "Player ab12", Score: 90, Grade: 2, Streak: 3},
		},
		students: []analytics.StudentStats{{
			ID:            "a", Name: "Player ab12", Grade: 2, TotalQuestions: 4, CorrectAnswers: 3,
			CurrentStreak: 3, BestStreak: 3, AverageTime: 2.5,
			WeakAreas:     []problemgen.Operation{problemgen.OpSubtraction},
		}},
	}
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name        string
		source      fakeStats
		leaderboard bool
		want        []string
	}{
		{"leaderboard", sampleStats(), true, []string{"Player ab12", "90", "Streak"}},
		{"students", sampleStats(), false, []string{"Player ab12", "75%", "2.5s", "subtraction"}},
		{"empty leaderboard", fakeStats{}, true, []string{"No scores yet."}},
		{"empty students", fakeStats{}, false, []string{"No students have played yet."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printStats(context.Background(), &buf, tt.source, tt.leaderboard, false, zap.NewNop()))
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestPrintStatsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStats(context.Background(), &buf, sampleStats(), true, true, zap.NewNop()))

	var got []analytics.LeaderboardEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleStats().board, got)
}

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, Execute(context.Background()))
	return out.String()
}

func TestPreviewLocal(t *testing.T) {
	out := run(t, "\nabc\n", "preview", "--grade", "2", "--count", "2")
	assert.Contains(t, out, "Grade 2, level 1, local questions")
	assert.Contains(t, out, "Question 1/2")
	assert.Contains(t, out, "(skipped)")
	assert.Contains(t, out, "Not a number.")
	assert.Contains(t, out, "Summary: 0/2 correct")
}

func TestPreviewRejectsBadGrade(t *testing.T) {
	rootCmd.SetArgs([]string{"preview", "--grade", "9"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid grade 9")
}

func TestHintCanned(t *testing.T) {
	out := run(t, "", "hint", "What is 12 - 5?", "--op", "subtraction", "--grade", "2")
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestVersion(t *testing.T) {
	out := run(t, "", "version")
	assert.Equal(t, "mathsprint "+version+"\n", out)
}
