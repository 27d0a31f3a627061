package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <username> <password> <email>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.client.Register(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if err := a.cfg.SaveToken(tok.Token); err != nil {
				return err
			}
			a.output(cmd).Print(tok)
			return nil
		},
	}
}

func (a *app) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Log in and save the session token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.client.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := a.cfg.SaveToken(tok.Token); err != nil {
				return err
			}
			a.output(cmd).Print(tok)
			return nil
		},
	}
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			if err := a.cfg.ClearToken(); err != nil {
				return err
			}
			a.output(cmd).PrintMessage("Logged out")
			return nil
		},
	}
}

func (a *app) newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every user, token and game on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Clear(cmd.Context()); err != nil {
				return err
			}
			a.output(cmd).PrintMessage("Database cleared")
			return nil
		},
	}
}
