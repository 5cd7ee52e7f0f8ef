package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/analytics"
	"github.com/abhisek/mathsprint/internal/client"
	"github.com/abhisek/mathsprint/internal/logger"
	"github.com/abhisek/mathsprint/internal/screens/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the teacher dashboard or the leaderboard",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Bool("leaderboard", false, "Print the top scores instead of per-student stats")
	statsCmd.Flags().Bool("json", false, "Print JSON")
	statsCmd.Flags().String("server", "", "Read from a mathsprint server instead of the local store")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := serverOverride(cmd, cfg); err != nil {
		return err
	}
	leaderboard, _ := cmd.Flags().GetBool("leaderboard")
	asJSON, _ := cmd.Flags().GetBool("json")

	log, err := logger.NewFile(cfg.Env, "")
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var source stats.Source
	if cfg.Client.ServerURL != "" {
		cl, err := client.New(cfg.ClientConfig(), log)
		if err != nil {
			return err
		}
		if err := cl.Health(ctx); err != nil {
			return fmt.Errorf("server %s: %w", cfg.Client.ServerURL, err)
		}
		source = cl
	} else {
		b, err := openBackend(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer b.Close()
		source = b.dashboard
	}

	return printStats(ctx, cmd.OutOrStdout(), source, leaderboard, asJSON, log)
}

func printStats(ctx context.Context, w io.Writer, source stats.Source, leaderboard, asJSON bool, log *zap.Logger) error {
	var v any
	if leaderboard {
		v = source.Leaderboard(ctx)
	} else {
		v = source.StudentStats(ctx)
	}
	log.Debug("stats loaded", zap.Bool("leaderboard", leaderboard))

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	switch rows := v.(type) {
	case []analytics.LeaderboardEntry:
		printLeaderboard(w, rows)
	case []analytics.StudentStats:
		printStudents(w, rows)
	}
	return nil
}

func printLeaderboard(w io.Writer, entries []analytics.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scores yet.")
		return
	}
	fmt.Fprintf(w, "%-4s  %-20s  %7s  %5s  %6s\n", "#", "Player", "Score", "Grade", "Streak")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	for i, e := range entries {
		fmt.Fprintf(w, "%-4d  %-20s  %7d  %5d  %6d\n", i+1, e.Name, e.Score, e.Grade, e.Streak)
	}
}

func printStudents(w io.Writer, students []analytics.StudentStats) {
	if len(students) == 0 {
		fmt.Fprintln(w, "No students have played yet.")
		return
	}
	fmt.Fprintf(w, "%-20s  %5s  %9s  %8s  %6s  %6s  %8s  %s\n",
		"Student", "Grade", "Questions", "Accuracy", "Streak", "Best", "Avg time", "Weak areas")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, st := range students {
		acc := 0.0
		if st.TotalQuestions > 0 {
			acc = float64(st.CorrectAnswers) / float64(st.TotalQuestions) * 100
		}
		weak := make([]string, len(st.WeakAreas))
		for i, op := range st.WeakAreas {
			weak[i] = string(op)
		}
		fmt.Fprintf(w, "%-20s  %5d  %9d  %7.0f%%  %6d  %6d  %7.1fs  %s\n",
			st.Name, st.Grade, st.TotalQuestions, acc, st.CurrentStreak, st.BestStreak, st.AverageTime,
			strings.Join(weak, ", "))
	}
}
