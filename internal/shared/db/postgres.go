package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-rickshaw/internal/shared/config"
	"campus-rickshaw/internal/shared/util"
)

// Connect builds the pgx pool and applies pending migrations from the
// migrations directory next to the working dir.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, log *util.Logger) (*pgxpool.Pool, error) {
	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := runMigrations(url, log); err != nil {
		pool.Close()
		return nil, err
	}

	log.OK("Database", "connected to "+cfg.Host+":"+cfg.Port+"/"+cfg.Database)
	return pool, nil
}

func runMigrations(url string, log *util.Logger) error {
	cwd, _ := os.Getwd()
	m, err := migrate.New("file://"+filepath.Join(cwd, "migrations"), url)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Database", "no migrations to apply")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	log.OK("Database", "migrations applied")
	return nil
}
