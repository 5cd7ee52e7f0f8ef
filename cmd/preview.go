package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathsprint/internal/config"
	"github.com/abhisek/mathsprint/internal/llm"
	"github.com/abhisek/mathsprint/internal/logger"
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/session"
	"github.com/abhisek/mathsprint/internal/timing"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Try questions for a grade and level (no database)",
	Long: `Generate and answer questions for a grade and level on the command line.

Nothing is recorded. Useful for checking question quality and time limits,
especially with --source llm.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().Int("grade", 1, "Grade (1-6)")
	previewCmd.Flags().Int("level", 1, "Difficulty level")
	previewCmd.Flags().Int("count", 5, "Number of questions")
	previewCmd.Flags().String("source", config.SourceLocal, "Question source: local or llm")
}

func runPreview(cmd *cobra.Command, args []string) error {
	grade, _ := cmd.Flags().GetInt("grade")
	level, _ := cmd.Flags().GetInt("level")
	count, _ := cmd.Flags().GetInt("count")
	sourceName, _ := cmd.Flags().GetString("source")

	if !problemgen.ValidGrade(grade) {
		return fmt.Errorf("invalid grade %d: must be between %d and %d", grade, problemgen.MinGrade, problemgen.MaxGrade)
	}
	if level < 1 {
		return fmt.Errorf("invalid level %d", level)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logger.NewFile(cfg.Env, "")
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var source problemgen.Source
	switch sourceName {
	case config.SourceLocal:
		source = problemgen.NewLocalSource(problemgen.New())
	case config.SourceLLM:
		lc, err := llm.NewClient(ctx, cfg.LLMConfig(), log)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}
		defer lc.LogUsage(log)
		ctx = llm.WithSession(ctx, "preview")
		source = problemgen.NewLLMSource(lc, problemgen.DefaultConfig())
	default:
		return fmt.Errorf("invalid source %q: must be local or llm", sourceName)
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprintf(out, "Grade %d, level %d, %s questions\n\n", grade, level, sourceName)

	var correct, asked int
	for i := 1; i <= count; i++ {
		q, err := source.Next(ctx, grade, level)
		if err != nil {
			fmt.Fprintf(out, "Question %d: generation failed: %v\n\n", i, err)
			continue
		}
		asked++

		fmt.Fprintf(out, "── Question %d/%d (%s, %ds) ──\n", i, count, q.Operation, timing.TimeLimit(q, grade, level))
		fmt.Fprintln(out, q.Text)

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		text := strings.TrimSpace(scanner.Text())
		answer, err := strconv.Atoi(text)
		switch {
		case text == "":
			fmt.Fprintf(out, "(skipped) Answer: %d\n\n", q.Answer)
			continue
		case err != nil:
			fmt.Fprintf(out, "Not a number. Answer: %d\n\n", q.Answer)
			continue
		}

		if session.Evaluate(q, answer) {
			correct++
			fmt.Fprintln(out, "✓ Correct!")
		} else {
			fmt.Fprintf(out, "✗ Wrong. Answer: %d\n", q.Answer)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "── Summary: %d/%d correct ──\n", correct, asked)
	return nil
}
