package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (a *app) newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List, create and join games",
	}

	cmd.AddCommand(a.newGamesListCmd())
	cmd.AddCommand(a.newGamesCreateCmd())
	cmd.AddCommand(a.newGamesJoinCmd())

	return cmd
}

func (a *app) newGamesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := a.client.ListGames(cmd.Context())
			if err != nil {
				return err
			}
			a.output(cmd).Print(games)
			return nil
		},
	}
}

func (a *app) newGamesCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a game with both seats empty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.client.CreateGame(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.output(cmd).Print(createdGame{GameID: id})
			return nil
		},
	}
}

func (a *app) newGamesJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <gameID> <white|black>",
		Short: "Take a seat in a game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid game ID %q", args[0])
			}
			if err := a.client.JoinGame(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			a.output(cmd).PrintMessage(fmt.Sprintf("Joined game %d", id))
			return nil
		},
	}
}
