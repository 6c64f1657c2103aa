package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fxposquad/termbot/internal/app"
	"github.com/fxposquad/termbot/internal/config"
	"github.com/fxposquad/termbot/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "termbot",
	Short: "Trading terms dictionary and quiz",
	Long:  "termbot answers questions about trading terms and quizzes you on them, right in the terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, false)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to YAML config file (overrides TERMBOT_CONFIG)")
	pf.String("db", "", "Path to SQLite event log (overrides store.path)")
	pf.String("data", "", "Directory with glossary YAML files (default: built-in dataset)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(termsCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies the persistent flag
// overrides on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		cfg.Store.Path = p
		cfg.Store.Disabled = false
	}
	if d, _ := cmd.Flags().GetString("data"); d != "" {
		cfg.Data.Dir = d
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.Log.Level = l
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: validate: %w", err)
		}
	}
	return cfg, nil
}

// bootstrap loads the config, builds the logger and wires the services.
// ui selects the logger that stays off the terminal. The returned cleanup
// must be called when the command is done.
func bootstrap(cmd *cobra.Command, ui bool) (*app.Services, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	newLogger := app.NewLogger
	if ui {
		newLogger = app.NewUILogger
	}
	logger, logCloser, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	s, err := app.Bootstrap(cmd.Context(), cfg, logger)
	if err != nil {
		logCloser.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := s.Close(); err != nil {
			logger.Warn("close services", "error", err)
		}
		logCloser.Close()
	}
	return s, cleanup, nil
}

// openEvents opens only the event log, for commands that never touch the
// glossary.
func openEvents(cmd *cobra.Command) (store.EventRepo, io.Closer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.Disabled {
		return nil, nil, fmt.Errorf("event log is disabled (store.disabled)")
	}
	logger := app.NewLoggerTo(cfg.Log, os.Stderr)
	return app.OpenEvents(cfg.Store, logger.With("command", cmd.Name()))
}
