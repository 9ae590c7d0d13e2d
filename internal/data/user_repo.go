package data

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/akredia/akredia-api/internal/data/pgxutil"
	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
	apperrors "github.com/akredia/akredia-api/internal/errors"
)

// UserRepo provides database operations for user accounts and credentials.
// Reads serve the authentication core; the only write is lecturer
// self-registration. All other mutation belongs to the user-management
// collaborator.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// FindByUsername returns the stored record for the username, including the
// password hash. Lookup is case-insensitive to match how accounts are created.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (domainauth.StoredUser, error) {
	var out domainauth.StoredUser
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `
			SELECT id, username, name, email, role, COALESCE(program_id, ''), password_hash
			FROM users
			WHERE LOWER(username) = LOWER($1)
		`, strings.TrimSpace(username))
		return scanStoredUser(row, &out)
	})
	if err != nil {
		return domainauth.StoredUser{}, apperrors.MapDBError(err)
	}
	out.Role = domainauth.NormalizeRole(string(out.Role))
	return out, nil
}

// FindByID resolves an identity by its stable identifier.
func (r *UserRepo) FindByID(ctx context.Context, id string) (domainauth.Identity, error) {
	var out domainauth.StoredUser
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `
			SELECT id, username, name, email, role, COALESCE(program_id, ''), password_hash
			FROM users
			WHERE id = $1
		`, id)
		return scanStoredUser(row, &out)
	})
	if err != nil {
		return domainauth.Identity{}, apperrors.MapDBError(err)
	}
	out.Role = domainauth.NormalizeRole(string(out.Role))
	return out.Identity, nil
}

// Create inserts a new account. The caller supplies an already-hashed password;
// plaintext never reaches this layer. A duplicate username surfaces as a
// Conflict error via pgerrcode classification.
func (r *UserRepo) Create(ctx context.Context, user domainauth.StoredUser) (domainauth.Identity, error) {
	if user.Username == "" {
		return domainauth.Identity{}, apperrors.ValidationField("username", "username is required")
	}
	if user.PasswordHash == "" {
		return domainauth.Identity{}, apperrors.ValidationField("password", "password hash is required")
	}

	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	role := domainauth.NormalizeRole(string(user.Role))
	createdAt := r.timeProvider.Now().UTC()

	var out domainauth.Identity
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `
			INSERT INTO users (id, username, name, email, role, program_id, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
			RETURNING id, username, name, email, role, COALESCE(program_id, '')
		`,
			id,
			strings.TrimSpace(user.Username),
			strings.TrimSpace(user.Name),
			strings.TrimSpace(user.Email),
			string(role),
			user.ProgramID,
			user.PasswordHash,
			createdAt,
		)
		return row.Scan(&out.ID, &out.Username, &out.Name, &out.Email, &out.Role, &out.ProgramID)
	})
	if err != nil {
		return domainauth.Identity{}, apperrors.MapDBError(err)
	}
	out.Role = domainauth.NormalizeRole(string(out.Role))
	return out, nil
}

func scanStoredUser(row pgx.Row, out *domainauth.StoredUser) error {
	return row.Scan(
		&out.ID,
		&out.Username,
		&out.Name,
		&out.Email,
		&out.Role,
		&out.ProgramID,
		&out.PasswordHash,
	)
}
