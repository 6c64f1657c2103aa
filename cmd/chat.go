package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fxposquad/termbot/internal/app"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat (default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		skipHome, _ := cmd.Flags().GetBool("skip-home")
		return runChat(cmd, skipHome)
	},
}

// runChat wires the services with a logger that stays off the terminal and
// launches the TUI.
func runChat(cmd *cobra.Command, skipHome bool) error {
	s, cleanup, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	return app.Run(s, skipHome)
}

func init() {
	chatCmd.Flags().Bool("skip-home", false, "Open the chat in the configured default mode without the start screen")
}
