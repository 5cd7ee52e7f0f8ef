package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/app"
	"github.com/abhisek/mathsprint/internal/client"
	"github.com/abhisek/mathsprint/internal/config"
	"github.com/abhisek/mathsprint/internal/hints"
	"github.com/abhisek/mathsprint/internal/logger"
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/session"
	"github.com/abhisek/mathsprint/internal/worker"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Play in the terminal.

With --server (or client.server_url) questions, hints and answers go
through a running "mathsprint serve"; otherwise everything runs locally
against the configured store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func init() {
	playCmd.Flags().Int("grade", 1, "Grade preselected on the home screen (1-6)")
	playCmd.Flags().String("server", "", "Base URL of a mathsprint server")
	playCmd.Flags().String("log-file", "", "Write logs to this file (the terminal is taken by the game)")
	playCmd.Flags().Bool("no-splash", false, "Skip the welcome screen")
}

func runPlay(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := serverOverride(cmd, cfg); err != nil {
		return err
	}

	// Flags are only registered on the play command itself.
	grade, _ := cmd.Flags().GetInt("grade")
	logFile, _ := cmd.Flags().GetString("log-file")
	noSplash, _ := cmd.Flags().GetBool("no-splash")

	log, err := logger.NewFile(cfg.Env, logFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	opts := app.Options{Grade: grade, SkipSplash: noSplash, Log: log}
	ctx := cmd.Context()

	if cfg.Client.ServerURL != "" {
		cleanup, err := remotePlay(ctx, cfg, log, &opts)
		if err != nil {
			return err
		}
		defer cleanup()
		return app.Run(opts)
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	opts.Factory = sessionFactory(cfg, b.sessionDeps())
	opts.Stats = b.dashboard
	return app.Run(opts)
}

// remotePlay wires the game to a server. Sessions still run in-process so
// the countdown stays responsive; the server supplies questions and hints
// and stores answers.
func remotePlay(ctx context.Context, cfg *config.Config, log *zap.Logger, opts *app.Options) (func(), error) {
	fallback := hints.NewService(nil, hints.DefaultConfig(), log)
	cl, err := client.New(cfg.ClientConfig(), log, client.WithFallbackHints(fallback))
	if err != nil {
		return nil, err
	}
	if err := cl.Health(ctx); err != nil {
		log.Warn("server not reachable, questions will come from templates", zap.Error(err))
	}

	pool := worker.NewPool(2, 64, log)
	opts.Factory = sessionFactory(cfg, session.Deps{
		Questions: problemgen.NewFallbackSource(cl, problemgen.New(), log),
		Recorder:  cl,
		Hints:     cl,
		Pool:      pool,
		Log:       log,
	})
	opts.Stats = cl

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), drainWait)
		defer cancel()
		_ = pool.Close(ctx)
	}, nil
}
