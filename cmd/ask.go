package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fxposquad/termbot/internal/glossary"
	"github.com/fxposquad/termbot/internal/llm"
	"github.com/fxposquad/termbot/internal/resolver"
	"github.com/fxposquad/termbot/internal/textnorm"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Look up one term and print the answer",
	Example: `  termbot ask "что такое маржа"
  termbot ask --detailed смарт мани`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detailed, _ := cmd.Flags().GetBool("detailed")

		s, cleanup, err := bootstrap(cmd, false)
		if err != nil {
			return err
		}
		defer cleanup()

		query := strings.Join(args, " ")
		ctx := resolver.WithUser(cmd.Context(), s.Config.Chat.UserID)
		ans := s.Resolver.Resolve(llm.WithPurpose(ctx, llm.PurposeEmbedQuery), query, detailed)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ans.Text)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Источник: %s\n", ans.Source)
		if detailed && ans.Resolved() {
			if img, ok := glossary.ImagePath(s.Config.Data.ImagesDir, textnorm.Normalize(query)); ok {
				fmt.Fprintf(out, "Изображение: %s\n", img)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolP("detailed", "d", false, "Print the detailed definition when there is one")
}
