package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/model"
	"github.com/sakif/chess-lobby/internal/repository"
	"github.com/sakif/chess-lobby/internal/rules"
)

const MaxGameNameLength = 255

// GameService creates, lists and seats players in games. Every call first
// resolves the caller's token.
type GameService struct {
	games  repository.GameRepository
	auth   *AuthService
	engine rules.Engine
	logger *slog.Logger
}

func NewGameService(games repository.GameRepository, auth *AuthService, engine rules.Engine, logger *slog.Logger) *GameService {
	return &GameService{
		games:  games,
		auth:   auth,
		engine: engine,
		logger: logger,
	}
}

// Create stores a new game with both seats empty and the engine's starting
// state, and returns the store-assigned ID.
func (s *GameService) Create(ctx context.Context, token, name string) (int64, error) {
	username, err := s.auth.Validate(ctx, token)
	if err != nil {
		return 0, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperror.ValidationFailed("gameName", "Error: bad request")
	}
	if len(name) > MaxGameNameLength {
		return 0, apperror.ValidationFailed("gameName",
			fmt.Sprintf("gameName must be %d characters or fewer", MaxGameNameLength))
	}

	state, err := s.engine.NewGame()
	if err != nil {
		return 0, fmt.Errorf("service/game: building initial state: %w", err)
	}

	game := &model.Game{Name: name, State: state}
	if err := s.games.CreateGame(ctx, game); err != nil {
		return 0, fmt.Errorf("service/game: creating %q: %w", name, err)
	}

	s.logger.Info("game created",
		slog.Int64("gameID", game.ID),
		slog.String("gameName", name),
		slog.String("username", username),
	)
	return game.ID, nil
}

// List returns every game in ID order.
func (s *GameService) List(ctx context.Context, token string) ([]model.GameSummary, error) {
	if _, err := s.auth.Validate(ctx, token); err != nil {
		return nil, err
	}

	games, err := s.games.ListGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/game: listing games: %w", err)
	}
	return games, nil
}

// Join seats the caller in gameID as color. color is "WHITE" or "BLACK" in
// any case. A seat that is already occupied, even by the caller, is
// apperror.ErrSeatTaken.
func (s *GameService) Join(ctx context.Context, token string, gameID int64, color string) error {
	username, err := s.auth.Validate(ctx, token)
	if err != nil {
		return err
	}

	c, err := model.ParseColor(color)
	if err != nil {
		return apperror.ValidationFailed("playerColor", "Error: bad request")
	}
	if gameID <= 0 {
		return apperror.ValidationFailed("gameID", "Error: bad request")
	}

	if err := s.games.ClaimSeat(ctx, gameID, c, username); err != nil {
		switch {
		case errors.Is(err, apperror.ErrSeatTaken):
			s.logger.Info("seat already taken",
				slog.Int64("gameID", gameID),
				slog.String("color", c.String()),
				slog.String("username", username),
			)
		case errors.Is(err, apperror.ErrNotFound):
			s.logger.Info("join for unknown game", slog.Int64("gameID", gameID))
		}
		return fmt.Errorf("service/game: joining game %d: %w", gameID, err)
	}

	s.logger.Info("player joined",
		slog.Int64("gameID", gameID),
		slog.String("color", c.String()),
		slog.String("username", username),
	)
	return nil
}
