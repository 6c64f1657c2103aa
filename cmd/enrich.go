package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fxposquad/termbot/internal/app"
	"github.com/fxposquad/termbot/internal/enrich"
	"github.com/fxposquad/termbot/internal/llm"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Draft detailed definitions for terms that lack one",
	Long: `Asks the configured LLM for a detailed definition of every term that only
has a short one and writes the drafts as a YAML mapping that can be saved
as detailed.yaml in a data directory. Review the drafts before shipping them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("out")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ecfg := enrich.DefaultConfig()
		ecfg.Limit, _ = cmd.Flags().GetInt("limit")
		ecfg.Concurrency, _ = cmd.Flags().GetInt("concurrency")
		ecfg.KeepLowConfig, _ = cmd.Flags().GetBool("keep-low")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, logCloser, err := app.NewLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer logCloser.Close()

		g, _, err := app.LoadGlossary(cfg.Data, logger)
		if err != nil {
			return err
		}

		missing := enrich.Missing(g)
		if dryRun || len(missing) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d terms without a detailed definition\n", len(missing))
			for _, k := range missing {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		}

		llmCfg := cfg.LLM
		if err := llmCfg.Validate(); errors.Is(err, llm.ErrNotConfigured) {
			discovered, ok := llm.DiscoverConfig(llmCfg)
			if !ok {
				return fmt.Errorf("LLM provider not configured: %w", err)
			}
			logger.Info("using LLM provider from environment", "provider", discovered.Provider)
			llmCfg = discovered
		} else if err != nil {
			return err
		}

		events, eventsCloser, err := app.OpenEvents(cfg.Store, logger)
		if err != nil {
			return err
		}
		defer eventsCloser.Close()

		provider, err := llm.NewProvider(cmd.Context(), llmCfg, events, logger)
		if err != nil {
			return err
		}

		drafts, draftErr := enrich.New(provider, ecfg, logger).Draft(cmd.Context(), g)
		if draftErr != nil && len(drafts) == 0 {
			return fmt.Errorf("draft definitions: %w", draftErr)
		}

		var out io.Writer = cmd.OutOrStdout()
		if outPath != "" && outPath != "-" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			defer f.Close()
			out = f
		}
		if err := enrich.WriteYAML(out, drafts); err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "drafted %d of %d terms\n", len(drafts), min(len(missing), limitOrAll(ecfg.Limit, len(missing))))
		if draftErr != nil {
			return errors.Join(errors.New("some terms failed"), draftErr)
		}
		return nil
	},
}

func limitOrAll(limit, n int) int {
	if limit <= 0 {
		return n
	}
	return limit
}

func init() {
	f := enrichCmd.Flags()
	f.StringP("out", "o", "-", "Output YAML file (- for stdout)")
	f.IntP("limit", "n", 0, "Draft at most this many terms (0 = all)")
	f.Int("concurrency", 4, "Parallel LLM requests")
	f.Bool("keep-low", false, "Keep drafts the model marked low-confidence")
	f.Bool("dry-run", false, "Only list the terms that would be drafted")
}
