package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathsprint/internal/client"
	"github.com/abhisek/mathsprint/internal/hints"
	"github.com/abhisek/mathsprint/internal/llm"
	"github.com/abhisek/mathsprint/internal/logger"
	"github.com/abhisek/mathsprint/internal/problemgen"
)

var hintCmd = &cobra.Command{
	Use:   "hint <question>",
	Short: "Ask for a hint without giving the answer away",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := serverOverride(cmd, cfg); err != nil {
			return err
		}
		op, _ := cmd.Flags().GetString("op")
		grade, _ := cmd.Flags().GetInt("grade")
		if !problemgen.Operation(op).Valid() {
			return fmt.Errorf("invalid --op %q", op)
		}
		if !problemgen.ValidGrade(grade) {
			return fmt.Errorf("invalid --grade %d", grade)
		}

		log, err := logger.NewFile(cfg.Env, "")
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		req := hints.Request{Question: args[0], Operation: op, Grade: grade}

		if cfg.Client.ServerURL != "" {
			cl, err := client.New(cfg.ClientConfig(), log,
				client.WithFallbackHints(hints.NewService(nil, hints.DefaultConfig(), log)))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cl.FetchHint(ctx, req))
			return nil
		}

		// Without a provider the service answers with a canned hint.
		var provider llm.Provider
		if lc, err := llm.NewClient(ctx, cfg.LLMConfig(), log); err == nil {
			provider = lc
			defer lc.LogUsage(log)
		}
		svc := hints.NewService(provider, hints.DefaultConfig(), log)
		fmt.Fprintln(cmd.OutOrStdout(), svc.HintFor(ctx, req))
		return nil
	},
}

func init() {
	hintCmd.Flags().String("op", string(problemgen.OpAddition), "Operation: addition, subtraction, multiplication or division")
	hintCmd.Flags().Int("grade", 1, "Grade of the student (1-6)")
	hintCmd.Flags().String("server", "", "Ask a mathsprint server instead of the local provider")
}
