package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yigit/mclass/internal/pkg/logger"
	_ "modernc.org/sqlite"
)

// SQLiteDB is the single-file (or in-memory) backend used for local runs and tests.
type SQLiteDB struct {
	DB *sql.DB
}

// NewSQLiteDB opens dsn with the modernc driver. The pool is pinned to one
// connection so transactions run one after another.
func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to establish sqlite connection: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteDB{DB: sqlDB}, nil
}

// SQLiteFileDSN builds a DSN for an on-disk database.
func SQLiteFileDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
}

// SQLiteMemoryDSN builds a DSN for a named in-memory database.
func SQLiteMemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
}

func (db *SQLiteDB) Dialect() Dialect { return SQLiteDialect }

func (db *SQLiteDB) Ping(ctx context.Context) error { return db.DB.PingContext(ctx) }

func (db *SQLiteDB) Close() {
	if db.DB != nil {
		_ = db.DB.Close()
	}
}

func (db *SQLiteDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return sqlQuerier{db.DB}.Exec(ctx, query, args...)
}

func (db *SQLiteDB) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlQuerier{db.DB}.QueryRow(ctx, query, args...)
}

func (db *SQLiteDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return sqlQuerier{db.DB}.Query(ctx, query, args...)
}

// WithTransaction runs a function within a transaction
func (db *SQLiteDB) WithTransaction(ctx context.Context, fn TransactionFn) error {
	_, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, sqlQuerier{tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
			return fmt.Errorf("error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// sqlConn is satisfied by both *sql.DB and *sql.Tx.
type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type sqlQuerier struct {
	conn sqlConn
}

func (q sqlQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q sqlQuerier) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{q.conn.QueryRowContext(ctx, query, args...)}
}

func (q sqlQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := q.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

type sqlRow struct {
	row *sql.Row
}

func (r sqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	return err
}

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() { _ = r.Rows.Close() }
