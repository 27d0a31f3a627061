// Package cli implements chessctl, a command-line client for the lobby server.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/chess-lobby/internal/client"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfg    *Config
	client *client.Client
}

func (a *app) output(cmd *cobra.Command) *Output {
	return NewOutput(a.cfg.Output, cmd.OutOrStdout())
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "chessctl",
		Short: "CLI for the chess lobby server",
		Long: `chessctl registers accounts, manages sessions and creates or joins games
on a chess lobby server.

The session token is kept in a file (default ~/.chessctl/token) after
register or login and sent with every later command.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.LoadToken(); err != nil {
				return err
			}
			a.client = client.New(a.cfg.ServerURL)
			a.client.SetToken(a.cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfg.ServerURL, "server", a.cfg.ServerURL, "Server URL (env: CHESSCTL_SERVER)")
	flags.StringVar(&a.cfg.Token, "token", a.cfg.Token, "Session token (env: CHESSCTL_TOKEN)")
	flags.StringVar(&a.cfg.TokenFile, "token-file", a.cfg.TokenFile, "Token file path (env: CHESSCTL_TOKEN_FILE)")
	flags.StringVarP(&a.cfg.Output, "output", "o", a.cfg.Output, "Output format: text, json")

	rootCmd.AddCommand(a.newRegisterCmd())
	rootCmd.AddCommand(a.newLoginCmd())
	rootCmd.AddCommand(a.newLogoutCmd())
	rootCmd.AddCommand(a.newGamesCmd())
	rootCmd.AddCommand(a.newClearCmd())

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
