package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/chess-lobby/internal/model"
	"github.com/sakif/chess-lobby/internal/repository"
	"github.com/sakif/chess-lobby/internal/rules"
)

// Lobby is the single entry point the transport layer talks to.
type Lobby struct {
	Auth  *AuthService
	Users *UserService
	Games *GameService
	admin repository.AdminRepository
	log   *slog.Logger
}

// LobbyOptions carries the optional collaborators of NewLobby.
type LobbyOptions struct {
	Cache  TokenCache // may be nil
	Engine rules.Engine
	Hasher PasswordHasher
}

// NewLobby builds all services on top of one store.
func NewLobby(store repository.Store, opts LobbyOptions, logger *slog.Logger) *Lobby {
	authSvc := NewAuthService(store, opts.Cache, logger)
	return &Lobby{
		Auth:  authSvc,
		Users: NewUserService(store, authSvc, opts.Hasher, logger),
		Games: NewGameService(store, authSvc, opts.Engine, logger),
		admin: store,
		log:   logger,
	}
}

func (l *Lobby) Register(ctx context.Context, username, password, email string) (*model.AuthToken, error) {
	return l.Users.Register(ctx, username, password, email)
}

func (l *Lobby) Login(ctx context.Context, username, password string) (*model.AuthToken, error) {
	return l.Users.Login(ctx, username, password)
}

// Authenticate resolves token to its owner, or fails with
// apperror.ErrUnauthorized.
func (l *Lobby) Authenticate(ctx context.Context, token string) (string, error) {
	return l.Auth.Validate(ctx, token)
}

// Logout revokes token. The token must currently be valid.
func (l *Lobby) Logout(ctx context.Context, token string) error {
	username, err := l.Auth.Validate(ctx, token)
	if err != nil {
		return err
	}
	if err := l.Auth.Revoke(ctx, token); err != nil {
		return err
	}
	l.log.Info("user logged out", slog.String("username", username))
	return nil
}

func (l *Lobby) ListGames(ctx context.Context, token string) ([]model.GameSummary, error) {
	return l.Games.List(ctx, token)
}

func (l *Lobby) CreateGame(ctx context.Context, token, name string) (int64, error) {
	return l.Games.Create(ctx, token, name)
}

func (l *Lobby) JoinGame(ctx context.Context, token string, gameID int64, color string) error {
	return l.Games.Join(ctx, token, gameID, color)
}

// Clear wipes every user, token and game. Schema is kept.
func (l *Lobby) Clear(ctx context.Context) error {
	if err := l.admin.Clear(ctx); err != nil {
		return fmt.Errorf("service/lobby: clearing store: %w", err)
	}
	l.Auth.FlushCache(ctx)
	l.log.Warn("store cleared")
	return nil
}

// RowCounts reports rows per table.
func (l *Lobby) RowCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := l.admin.RowCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/lobby: counting rows: %w", err)
	}
	return counts, nil
}
