package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/model"
	"github.com/sakif/chess-lobby/internal/repository"
)

var _ repository.TokenRepository = (*DB)(nil)

func (db *DB) CreateToken(ctx context.Context, token *model.AuthToken) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return insertToken(ctx, tx, token)
	})
}

// insertToken is shared with CreateUser so registration writes the user and
// its token in the same transaction.
//
// A primary-key collision means the generator produced a duplicate. That is a
// storage failure, not a user-facing conflict.
func insertToken(ctx context.Context, tx *sql.Tx, token *model.AuthToken) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO auth_tokens (token, username) VALUES (?, ?)`,
		token.Token, token.Username,
	)
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return apperror.NotFound("user", token.Username)
	default:
		return storageErr("inserting auth token", err)
	}
}

// GetToken looks up a token. Unknown tokens return apperror.ErrNotFound.
// The token value itself is never put into error messages.
func (db *DB) GetToken(ctx context.Context, token string) (*model.AuthToken, error) {
	var t model.AuthToken
	err := db.conn.QueryRowContext(ctx,
		`SELECT token, username FROM auth_tokens WHERE token = ?`, token,
	).Scan(&t.Token, &t.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("auth token", "<redacted>")
		}
		return nil, storageErr("getting auth token", err)
	}
	return &t, nil
}

func (db *DB) DeleteToken(ctx context.Context, token string) (bool, error) {
	var deleted bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token = ?`, token)
		if err != nil {
			return storageErr("deleting auth token", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return storageErr("checking rows affected", err)
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}
