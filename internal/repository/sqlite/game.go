package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/model"
	"github.com/sakif/chess-lobby/internal/repository"
)

var _ repository.GameRepository = (*DB)(nil)

// CreateGame inserts a game with both seats empty and writes the assigned ID
// back into game.ID. IDs come from AUTOINCREMENT and are never reused, even
// after Clear.
func (db *DB) CreateGame(ctx context.Context, game *model.Game) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO games (game_name, white_username, black_username, game_state)
			 VALUES (?, NULL, NULL, ?)`,
			game.Name, []byte(game.State),
		)
		if err != nil {
			return storageErr(fmt.Sprintf("inserting game %q", game.Name), err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return storageErr("reading new game id", err)
		}
		game.ID = id
		game.WhiteUsername = ""
		game.BlackUsername = ""
		return nil
	})
}

// GetGame returns the full game row, state blob included.
func (db *DB) GetGame(ctx context.Context, id int64) (*model.Game, error) {
	var (
		g            model.Game
		white, black sql.NullString
		state        []byte
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT game_id, game_name, white_username, black_username, game_state
		 FROM games WHERE game_id = ?`, id,
	).Scan(&g.ID, &g.Name, &white, &black, &state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.GameNotFound(id)
		}
		return nil, storageErr(fmt.Sprintf("getting game %d", id), err)
	}

	g.WhiteUsername = white.String
	g.BlackUsername = black.String
	g.State = model.GameState(state)
	return &g, nil
}

// ListGames returns a summary of every game, oldest first.
func (db *DB) ListGames(ctx context.Context) ([]model.GameSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT game_id, game_name, white_username, black_username
		 FROM games ORDER BY game_id ASC`,
	)
	if err != nil {
		return nil, storageErr("listing games", err)
	}
	defer rows.Close()

	games := []model.GameSummary{}
	for rows.Next() {
		var (
			s            model.GameSummary
			white, black sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &white, &black); err != nil {
			return nil, storageErr("scanning game row", err)
		}
		s.WhiteUsername = white.String
		s.BlackUsername = black.String
		games = append(games, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating game rows", err)
	}

	return games, nil
}

// ClaimSeat is the one contended write in the system. The seat is assigned
// with a single conditional UPDATE guarded by "seat IS NULL", so of any number
// of concurrent claims for the same seat exactly one affects a row. When no
// row is affected, the same transaction checks whether the game exists to
// tell GameNotFound apart from SeatTaken.
func (db *DB) ClaimSeat(ctx context.Context, id int64, color model.Color, username string) error {
	column, err := seatColumn(color)
	if err != nil {
		return err
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE games SET `+column+` = ? WHERE game_id = ? AND `+column+` IS NULL`,
			username, id,
		)
		if err != nil {
			// The caller's user row is gone, e.g. wiped mid-request.
			if isForeignKeyViolation(err) {
				return apperror.Unauthorized("Error: unauthorized")
			}
			return storageErr(fmt.Sprintf("claiming %s seat in game %d", color, id), err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return storageErr("checking rows affected", err)
		}
		if n == 1 {
			return nil
		}

		var exists int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM games WHERE game_id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.GameNotFound(id)
		}
		if err != nil {
			return storageErr(fmt.Sprintf("checking game %d", id), err)
		}
		return apperror.SeatTaken(id, color.String())
	})
}

// seatColumn maps a color to its column. Only these two literals are ever
// interpolated into SQL.
func seatColumn(color model.Color) (string, error) {
	switch color {
	case model.White:
		return "white_username", nil
	case model.Black:
		return "black_username", nil
	}
	return "", apperror.ValidationFailed("playerColor", fmt.Sprintf("unknown color %q", string(color)))
}
