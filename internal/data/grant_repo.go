package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/akredia/akredia-api/internal/data/pgxutil"
	apperrors "github.com/akredia/akredia-api/internal/errors"
)

// GrantRepo provides database operations for program access grants.
// A grant row ties a coordinator account to one study program it may act on.
type GrantRepo struct {
	DB *sql.DB
}

// NewGrantRepo creates a new GrantRepo.
func NewGrantRepo(db *sql.DB) *GrantRepo {
	return &GrantRepo{DB: db}
}

// GrantsFor returns the program identifiers granted to the user. An account
// with no grants gets an empty, non-nil slice so callers can fail closed
// without a nil check.
func (r *GrantRepo) GrantsFor(ctx context.Context, userID string) ([]string, error) {
	grants := []string{}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT program_id
			FROM program_grants
			WHERE user_id = $1
			ORDER BY program_id
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var programID string
			if scanErr := rows.Scan(&programID); scanErr != nil {
				return scanErr
			}
			grants = append(grants, programID)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return grants, nil
}
