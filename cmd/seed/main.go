// Command seed creates the standard rank roles, the baseline permission
// set and a superuser account for a fresh deployment. Safe to rerun;
// existing rows are left alone.
package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/google/uuid"

	"casefile/internal/access"
	"casefile/internal/identity"
	"casefile/internal/platform/config"
	"casefile/internal/platform/logger"
	"casefile/internal/platform/middleware"
	"casefile/internal/platform/postgres"
	derrors "casefile/pkg/domain-errors"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.DatabaseURL == "" {
		log.Error("CASEFILE_DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	roleKeys := append([]string{access.RoleKeyCadet, access.RoleKeyJudge}, access.PoliceRoleKeys...)
	for _, key := range roleKeys {
		if err := upsertRole(ctx, db, key); err != nil {
			log.Error("role seed failed", "key", key, "error", err)
			os.Exit(1)
		}
	}
	log.Info("roles seeded", "count", len(roleKeys))

	accessStore := access.NewPostgresStore(db)
	perms := access.StandardPermissions()
	for i := range perms {
		if err := accessStore.UpsertPermission(ctx, &perms[i]); err != nil {
			log.Error("permission seed failed", "code", perms[i].Code, "error", err)
			os.Exit(1)
		}
	}
	log.Info("permissions seeded", "count", len(perms))

	identitySvc := identity.New(
		identity.NewPostgresUserStore(db),
		identity.NewPostgresTokenStore(db),
		identity.WithLogger(log),
	)
	admin, err := identitySvc.CreateUser(ctx, identity.CreateUserRequest{
		Username:    envOr("CASEFILE_SEED_ADMIN_USERNAME", "admin"),
		Email:       envOr("CASEFILE_SEED_ADMIN_EMAIL", "admin@casefile.local"),
		Phone:       envOr("CASEFILE_SEED_ADMIN_PHONE", "0000000000"),
		NationalID:  envOr("CASEFILE_SEED_ADMIN_NATIONAL_ID", "0000000000"),
		FullName:    "System Administrator",
		Password:    envOr("CASEFILE_SEED_ADMIN_PASSWORD", "change-me"),
		IsSuperuser: true,
	})
	switch {
	case err == nil:
		token, err := middleware.NewHMACValidator(cfg.JWTSigningKey).IssueToken(admin.ID.String(), 24*time.Hour)
		if err != nil {
			log.Error("token issue failed", "error", err)
			os.Exit(1)
		}
		log.Info("superuser created", "user_id", admin.ID, "dev_token", token)
	case derrors.HasCode(err, derrors.CodeInternal):
		// Most likely the unique constraint on a rerun.
		log.Info("superuser already present, skipping")
	default:
		log.Error("superuser seed failed", "error", err)
		os.Exit(1)
	}
}

func upsertRole(ctx context.Context, db *sql.DB, key string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO roles (id, name, key, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT DO NOTHING`,
		uuid.New(), key, key,
	)
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
