// Package db provides database connectivity and migration functionality.
// The application talks to PostgreSQL through pgx's database/sql driver wrapped in sqlx;
// migrations are embedded in the binary and applied with golang-migrate.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	// lib/pq backs the connection golang-migrate's postgres driver runs on.
	_ "github.com/lib/pq"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open establishes the application connection pool using pgx and verifies it with a ping.
func Open(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	connConfig, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	sqlDB := stdlib.OpenDB(*connConfig)
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s", cfg.DBName), err)
	}

	return sqlx.NewDb(sqlDB, "pgx"), nil
}

// RunMigrations applies any pending migrations embedded under migrations/.
// It opens its own short-lived lib/pq connection for golang-migrate's postgres driver.
func RunMigrations(cfg *config.DatabaseConfig, logger *slog.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return apperror.NewDatabaseError("failed to open migration connection", err)
	}
	defer sqlDB.Close()

	m, err := newMigrator(sqlDB)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewDatabaseError("failed to run migrations", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return apperror.NewDatabaseError("failed to read migration version", err)
	}
	logger.Info("database schema up to date", "version", version, "dirty", dirty)
	return nil
}

func newMigrator(sqlDB *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create migration source", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create migrator", err)
	}
	return m, nil
}
