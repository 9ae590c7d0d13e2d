// Package devseed populates a development database with well-known accounts so
// a fresh checkout can log in immediately. It never runs outside dev mode.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/akredia/akredia-api/internal/data"
	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
	apperrors "github.com/akredia/akredia-api/internal/errors"
	"github.com/akredia/akredia-api/internal/ports"
)

// DefaultPassword is the shared password for every seeded dev account.
const DefaultPassword = "akredia-dev"

type seedAccount struct {
	username string
	name     string
	email    string
	role     domainauth.Role
	grants   []string
}

var seedAccounts = []seedAccount{
	{
		username: "admin",
		name:     "Dev Administrator",
		email:    "admin@akredia.local",
		role:     domainauth.RoleAdmin,
	},
	{
		username: "prodi",
		name:     "Dev Koordinator Prodi",
		email:    "prodi@akredia.local",
		role:     domainauth.RoleProdi,
		grants:   []string{"prodi-if", "prodi-si"},
	},
	{
		username: "dosen",
		name:     "Dev Dosen",
		email:    "dosen@akredia.local",
		role:     domainauth.RoleLecturer,
	},
}

// Seed inserts the dev accounts and their program grants. Accounts that
// already exist are left untouched, so repeated startups are safe.
func Seed(ctx context.Context, db *sql.DB, hasher ports.PasswordHasher, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devseed")

	users := data.NewUserRepo(db)

	hash, err := hasher.Hash(DefaultPassword)
	if err != nil {
		return fmt.Errorf("devseed: hash password: %w", err)
	}

	for _, account := range seedAccounts {
		created, err := seedUser(ctx, users, account, hash)
		if err != nil {
			return fmt.Errorf("devseed: seed %s: %w", account.username, err)
		}
		if created == nil {
			logger.DebugContext(ctx, "dev account exists", "username", account.username)
			continue
		}

		if err := seedGrants(ctx, db, created.ID, account.grants); err != nil {
			return fmt.Errorf("devseed: grants for %s: %w", account.username, err)
		}
		logger.InfoContext(ctx, "seeded dev account",
			"username", account.username,
			"role", string(account.role),
			"grants", len(account.grants),
		)
	}
	return nil
}

func seedUser(ctx context.Context, users *data.UserRepo, account seedAccount, hash string) (*domainauth.Identity, error) {
	_, err := users.FindByUsername(ctx, account.username)
	if err == nil {
		return nil, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	created, err := users.Create(ctx, domainauth.StoredUser{
		Identity: domainauth.Identity{
			Username: account.username,
			Name:     account.name,
			Email:    account.email,
			Role:     account.role,
		},
		PasswordHash: hash,
	})
	if err != nil {
		// Lost a race against a concurrent startup; the account is there.
		if apperrors.IsConflict(err) {
			return nil, nil
		}
		return nil, err
	}
	return &created, nil
}

func seedGrants(ctx context.Context, db *sql.DB, userID string, programs []string) error {
	for _, programID := range programs {
		_, err := db.ExecContext(ctx, `
			INSERT INTO program_grants (user_id, program_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, userID, programID)
		if err != nil {
			return err
		}
	}
	return nil
}
