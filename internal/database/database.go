package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"transparencia/internal/config"
)

// RequiredSchema - таблицы и колонки, без которых сервис не стартует
var RequiredSchema = map[string][]string{
	"documents": {
		"id", "slug", "category_macro", "subcategory", "category_macro_procurement",
		"subcategory_procurement", "title", "global_value", "year", "visibility_areas",
		"status", "display_order", "current_version_id", "published_at", "revision",
	},
	"document_versions": {
		"id", "document_id", "version_number", "identification_number", "approval_date",
		"file_ref", "file_size", "file_hash", "is_current",
	},
	"biddings": {
		"id", "number", "object", "modality", "type", "final_value", "winner", "status",
	},
	"bidding_movements": {
		"id", "bidding_id", "phase", "description", "date",
	},
	"bidding_documents": {
		"id", "bidding_id", "document_type", "annex_number", "phase", "status",
		"display_order", "file_ref", "published_at",
	},
}

// Connect подключается к базе, при необходимости создавая ее, с повторными попытками
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	if err := ensureDatabase(ctx, cfg, logger); err != nil {
		return nil, err
	}

	var (
		db  *sqlx.DB
		err error
	)
	delay := time.Second
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.GetDSN())
		if err == nil {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)
			return db, nil
		}

		logger.Warn("failed to connect to database",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.ConnectAttempts),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 8*time.Second {
			delay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", cfg.ConnectAttempts, err)
}

// ensureDatabase создает базу через системную базу postgres, если ее еще нет
func ensureDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) error {
	system := cfg
	system.Name = "postgres"
	pgDB, err := sqlx.ConnectContext(ctx, "postgres", system.GetDSN())
	if err != nil {
		// Нет прав на системную базу - считаем, что целевая база уже создана
		logger.Warn("cannot reach system database, skipping existence check", zap.Error(err))
		return nil
	}
	defer pgDB.Close()

	var exists bool
	err = pgDB.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1)", cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		return nil
	}

	logger.Info("database does not exist, creating", zap.String("database", cfg.Name))
	if _, err := pgDB.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(cfg.Name)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}

// RunMigrations применяет миграции; грязное состояние сбрасывается на текущую версию
func RunMigrations(sourceURL, databaseURL string, logger *zap.Logger) error {
	var (
		m   *migrate.Migrate
		err error
	)
	for i := 0; i < 5; i++ {
		m, err = migrate.New(sourceURL, databaseURL)
		if err == nil {
			break
		}
		logger.Warn("failed to create migrate instance", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("failed to create migrate instance after retries: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		logger.Warn("found dirty database state, forcing version", zap.Uint("version", version))
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ = m.Version()
	logger.Info("migrations applied", zap.Uint("version", version))
	return nil
}

// CheckSchema сверяет фактическую схему с RequiredSchema
func CheckSchema(ctx context.Context, db *sqlx.DB) error {
	type column struct {
		Table  string `db:"table_name"`
		Column string `db:"column_name"`
	}

	tables := make([]string, 0, len(RequiredSchema))
	for table := range RequiredSchema {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	var columns []column
	err := db.SelectContext(ctx, &columns, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ANY($1)`,
		pq.Array(tables))
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c.Table+"."+c.Column] = true
	}

	var missing []string
	for _, table := range tables {
		for _, col := range RequiredSchema[table] {
			if !present[table+"."+col] {
				missing = append(missing, table+"."+col)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
