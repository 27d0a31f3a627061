// Package repository declares the storage contracts the services depend on.
// Implementations live in the sqlite and postgres subpackages; every method
// runs as one transaction and either fully applies or leaves no trace.
package repository

import (
	"context"
	"io"

	"github.com/sakif/chess-lobby/internal/model"
)

// Table names reported by RowCounts.
const (
	TableUsers      = "users"
	TableAuthTokens = "auth_tokens"
	TableGames      = "games"
)

// Tables lists the managed tables in dependency order (parents first).
var Tables = []string{TableUsers, TableAuthTokens, TableGames}

type UserRepository interface {
	// CreateUser inserts the user and its first token together.
	// Returns apperror.ErrAlreadyTaken if the username exists.
	CreateUser(ctx context.Context, user *model.User, token *model.AuthToken) error
	// GetUser returns apperror.ErrNotFound for an unknown username.
	GetUser(ctx context.Context, username string) (*model.User, error)
}

type TokenRepository interface {
	// CreateToken fails with apperror.ErrStorage on a token collision and
	// apperror.ErrNotFound if the owner does not exist.
	CreateToken(ctx context.Context, token *model.AuthToken) error
	// GetToken returns apperror.ErrNotFound for an unknown token.
	GetToken(ctx context.Context, token string) (*model.AuthToken, error)
	// DeleteToken reports whether a row was removed.
	DeleteToken(ctx context.Context, token string) (bool, error)
}

type GameRepository interface {
	// CreateGame stores the game with both seats empty and sets game.ID.
	CreateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id int64) (*model.Game, error)
	// ListGames returns every game ordered by ID.
	ListGames(ctx context.Context) ([]model.GameSummary, error)
	// ClaimSeat assigns username to the color seat only if the seat is empty.
	// Returns apperror.ErrNotFound or apperror.ErrSeatTaken otherwise, and
	// apperror.ErrUnauthorized if username no longer exists.
	ClaimSeat(ctx context.Context, id int64, color model.Color, username string) error
}

type AdminRepository interface {
	// Clear deletes every row from every table and keeps the schema.
	Clear(ctx context.Context) error
	// RowCounts returns the number of rows per table, keyed by table name.
	RowCounts(ctx context.Context) (map[string]int64, error)
}

// Store is the full durable store.
type Store interface {
	UserRepository
	TokenRepository
	GameRepository
	AdminRepository
	io.Closer
}
