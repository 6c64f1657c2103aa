package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fxposquad/termbot/internal/app"
)

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "List glossary terms and quiz topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		showTopics, _ := cmd.Flags().GetBool("topics")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, closer, err := app.NewLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer closer.Close()

		g, topics, err := app.LoadGlossary(cfg.Data, logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showTopics {
			for _, name := range topics.Names() {
				pool, _ := topics.Pool(name)
				fmt.Fprintf(out, "%-24s  %d\n", name, len(pool))
			}
			return nil
		}

		keys := g.Keys()
		if topic != "" {
			pool, ok := topics.Pool(topic)
			if !ok {
				return fmt.Errorf("unknown topic %q (known: %s)", topic, strings.Join(topics.Names(), ", "))
			}
			keys = pool
		}

		for _, key := range keys {
			marks := ""
			if _, ok := g.Detailed(key); ok {
				marks += "+"
			}
			if aliases := g.Aliases(key); len(aliases) > 0 {
				marks += " (" + strings.Join(aliases, ", ") + ")"
			}
			fmt.Fprintf(out, "%s%s\n", key, marks)
		}
		fmt.Fprintf(out, "\n%d terms; + marks a detailed definition\n", len(keys))
		return nil
	},
}

func init() {
	termsCmd.Flags().StringP("topic", "t", "", "Only list the terms of one topic")
	termsCmd.Flags().Bool("topics", false, "List topics with their term counts")
}
