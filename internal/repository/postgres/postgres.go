// Package postgres implements repository.Store on PostgreSQL through a pgx
// connection pool. It follows the same transactional contract as the sqlite
// backend and is selected with DB_DRIVER=postgres.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/model"
	"github.com/sakif/chess-lobby/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLSTATE codes from https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	// sqlDB is the database/sql view of pool used by golang-migrate.
	sqlDB *sql.DB
}

// New connects to databaseURL, verifies the connection and applies migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	s := &Store{pool: pool, sqlDB: stdlib.OpenDBFromPool(pool)}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	err := s.sqlDB.Close()
	s.pool.Close()
	return err
}

func (s *Store) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratepgx.WithInstance(s.sqlDB, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginFunc(ctx, s.pool, fn)
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return storageErr("running transaction", err)
}

func storageErr(op string, err error) error {
	return apperror.Storage(fmt.Errorf("postgres: %s: %w", op, err))
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ---- users & tokens ----

func (s *Store) CreateUser(ctx context.Context, user *model.User, token *model.AuthToken) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (username, password_hash, email) VALUES ($1, $2, $3)`,
			user.Username, user.PasswordHash, user.Email,
		)
		if err != nil {
			if pgCode(err) == codeUniqueViolation {
				return apperror.AlreadyTaken("username", user.Username)
			}
			return storageErr(fmt.Sprintf("inserting user %s", user.Username), err)
		}
		if token == nil {
			return nil
		}
		return insertToken(ctx, tx, token)
	})
}

func (s *Store) GetUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT username, password_hash, email FROM users WHERE username = $1`, username,
	).Scan(&u.Username, &u.PasswordHash, &u.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, storageErr(fmt.Sprintf("getting user %s", username), err)
	}
	return &u, nil
}

func (s *Store) CreateToken(ctx context.Context, token *model.AuthToken) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		return insertToken(ctx, tx, token)
	})
}

func insertToken(ctx context.Context, tx pgx.Tx, token *model.AuthToken) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO auth_tokens (token, username) VALUES ($1, $2)`,
		token.Token, token.Username,
	)
	switch {
	case err == nil:
		return nil
	case pgCode(err) == codeForeignKeyViolation:
		return apperror.NotFound("user", token.Username)
	default:
		return storageErr("inserting auth token", err)
	}
}

func (s *Store) GetToken(ctx context.Context, token string) (*model.AuthToken, error) {
	var t model.AuthToken
	err := s.pool.QueryRow(ctx,
		`SELECT token, username FROM auth_tokens WHERE token = $1`, token,
	).Scan(&t.Token, &t.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("auth token", "<redacted>")
		}
		return nil, storageErr("getting auth token", err)
	}
	return &t, nil
}

func (s *Store) DeleteToken(ctx context.Context, token string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE token = $1`, token)
	if err != nil {
		return false, storageErr("deleting auth token", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ---- games ----

func (s *Store) CreateGame(ctx context.Context, game *model.Game) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO games (game_name, game_state) VALUES ($1, $2) RETURNING game_id`,
			game.Name, []byte(game.State),
		).Scan(&game.ID)
		if err != nil {
			return storageErr(fmt.Sprintf("inserting game %q", game.Name), err)
		}
		game.WhiteUsername = ""
		game.BlackUsername = ""
		return nil
	})
}

func (s *Store) GetGame(ctx context.Context, id int64) (*model.Game, error) {
	var (
		g            model.Game
		white, black *string
		state        []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT game_id, game_name, white_username, black_username, game_state
		 FROM games WHERE game_id = $1`, id,
	).Scan(&g.ID, &g.Name, &white, &black, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.GameNotFound(id)
		}
		return nil, storageErr(fmt.Sprintf("getting game %d", id), err)
	}
	g.WhiteUsername = deref(white)
	g.BlackUsername = deref(black)
	g.State = model.GameState(state)
	return &g, nil
}

func (s *Store) ListGames(ctx context.Context) ([]model.GameSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT game_id, game_name, white_username, black_username
		 FROM games ORDER BY game_id ASC`)
	if err != nil {
		return nil, storageErr("listing games", err)
	}
	defer rows.Close()

	games := []model.GameSummary{}
	for rows.Next() {
		var (
			g            model.GameSummary
			white, black *string
		)
		if err := rows.Scan(&g.ID, &g.Name, &white, &black); err != nil {
			return nil, storageErr("scanning game row", err)
		}
		g.WhiteUsername = deref(white)
		g.BlackUsername = deref(black)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating game rows", err)
	}
	return games, nil
}

// ClaimSeat relies on the row lock taken by UPDATE: a concurrent claimer
// blocks, then re-evaluates "seat IS NULL" against the committed row and
// affects nothing.
func (s *Store) ClaimSeat(ctx context.Context, id int64, color model.Color, username string) error {
	var column string
	switch color {
	case model.White:
		column = "white_username"
	case model.Black:
		column = "black_username"
	default:
		return apperror.ValidationFailed("playerColor", fmt.Sprintf("unknown color %q", string(color)))
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE games SET `+column+` = $1 WHERE game_id = $2 AND `+column+` IS NULL`,
			username, id,
		)
		if err != nil {
			// The caller's user row is gone, e.g. wiped mid-request.
			if pgCode(err) == codeForeignKeyViolation {
				return apperror.Unauthorized("Error: unauthorized")
			}
			return storageErr(fmt.Sprintf("claiming %s seat in game %d", color, id), err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM games WHERE game_id = $1)`, id,
		).Scan(&exists); err != nil {
			return storageErr(fmt.Sprintf("checking game %d", id), err)
		}
		if !exists {
			return apperror.GameNotFound(id)
		}
		return apperror.SeatTaken(id, color.String())
	})
}

// ---- admin ----

func (s *Store) Clear(ctx context.Context) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		for _, table := range []string{repository.TableGames, repository.TableAuthTokens, repository.TableUsers} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
				return storageErr("clearing "+table, err)
			}
		}
		return nil
	})
}

func (s *Store) RowCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(repository.Tables))
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		for _, table := range repository.Tables {
			var n int64
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
				return storageErr("counting "+table, err)
			}
			counts[table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
