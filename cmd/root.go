package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathsprint/internal/config"
	"github.com/abhisek/mathsprint/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "mathsprint",
	Short:        "Timed arithmetic practice for kids",
	Long:         "MathSprint: a terminal and HTTP math game for grades 1-6 with streaks, levels, hints and a teacher dashboard.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default ./mathsprint.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to the SQLite database file (selects the sqlite store)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(hintCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Driver = store.DriverSQLite
		cfg.Store.DSN = ""
		cfg.Store.Path = p
	}
	return cfg, nil
}

// serverOverride points the client at the --server flag when given.
func serverOverride(cmd *cobra.Command, cfg *config.Config) error {
	url, _ := cmd.Flags().GetString("server")
	if url == "" {
		return nil
	}
	cfg.Client.ServerURL = url
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid --server: %w", err)
	}
	return nil
}
