// Package handler translates HTTP requests into Lobby calls and Lobby results
// into JSON. It holds no business rules of its own.
package handler

import (
	"context"

	"github.com/sakif/chess-lobby/internal/model"
)

// Lobby is the subset of service.Lobby the handlers call.
type Lobby interface {
	Authenticate(ctx context.Context, token string) (string, error)
	Register(ctx context.Context, username, password, email string) (*model.AuthToken, error)
	Login(ctx context.Context, username, password string) (*model.AuthToken, error)
	Logout(ctx context.Context, token string) error
	ListGames(ctx context.Context, token string) ([]model.GameSummary, error)
	CreateGame(ctx context.Context, token, name string) (int64, error)
	JoinGame(ctx context.Context, token string, gameID int64, color string) error
	Clear(ctx context.Context) error
}
