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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts the user row and its first token in one transaction.
//
// The username primary key is the only uniqueness check: there is no
// SELECT-then-INSERT, so two concurrent registrations for the same name
// cannot both commit. The loser sees a constraint error, reported as
// apperror.ErrAlreadyTaken, and its token is never written.
func (db *DB) CreateUser(ctx context.Context, user *model.User, token *model.AuthToken) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, email) VALUES (?, ?, ?)`,
			user.Username, user.PasswordHash, user.Email,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.AlreadyTaken("username", user.Username)
			}
			return storageErr(fmt.Sprintf("inserting user %s", user.Username), err)
		}

		if token != nil {
			if err := insertToken(ctx, tx, token); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetUser retrieves a user by username.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT username, password_hash, email FROM users WHERE username = ?`,
		username,
	).Scan(&u.Username, &u.PasswordHash, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, storageErr(fmt.Sprintf("getting user %s", username), err)
	}

	return &u, nil
}
