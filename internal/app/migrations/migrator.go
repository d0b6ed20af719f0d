package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/mclass/internal/db"
)

//go:embed sql
var migrationFiles embed.FS

// Migrator applies the embedded forward-only migrations for the database's dialect
type Migrator struct {
	db     db.Database
	files  fs.FS
	logger zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(database db.Database, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:     database,
		files:  migrationFiles,
		logger: logger,
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	);`

	if _, err := m.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	query, args, err := m.db.Dialect().Builder().
		Select("COUNT(*)").From("schema_migrations").Where("version = ?", version).ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := m.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return count > 0, nil
}

// Up applies every pending migration in filename order
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return err
	}

	dir := path.Join("sql", m.db.Dialect().Name)
	entries, err := fs.ReadDir(m.files, dir)
	if err != nil {
		return fmt.Errorf("failed to read migration directory %s: %w", dir, err)
	}

	var sqlFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			sqlFiles = append(sqlFiles, e.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, name := range sqlFiles {
		if err := m.apply(ctx, dir, name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, dir, name string) error {
	// "001_init.sql" => "001"
	version := strings.Split(name, "_")[0]

	applied, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug().Str("migration", name).Msg("Migration already applied, skipping")
		return nil
	}

	content, err := fs.ReadFile(m.files, path.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	record, args, err := m.db.Dialect().Builder().
		Insert("schema_migrations").Columns("version", "applied_at").
		Values(version, time.Now().UTC()).ToSql()
	if err != nil {
		return err
	}

	err = m.db.WithTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		if _, err := q.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration execution: %w", err)
		}
		if _, err := q.Exec(ctx, record, args...); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migration %s: %w", name, err)
	}

	m.logger.Info().Str("migration", name).Str("dialect", m.db.Dialect().Name).Msg("Migration applied")
	return nil
}
