package sqlite

import (
	"context"
	"database/sql"

	"github.com/sakif/chess-lobby/internal/repository"
)

var _ repository.AdminRepository = (*DB)(nil)

// Clear removes every row from the three tables, children first, in one
// transaction. The schema and the AUTOINCREMENT counter are left in place.
func (db *DB) Clear(ctx context.Context) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{repository.TableGames, repository.TableAuthTokens, repository.TableUsers} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return storageErr("clearing "+table, err)
			}
		}
		return nil
	})
}

// RowCounts reads all three counts inside one transaction so they describe a
// single snapshot.
func (db *DB) RowCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(repository.Tables))
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range repository.Tables {
			var n int64
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
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
