// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/mclass/internal/app/migrations"
	"github.com/yigit/mclass/internal/db"
)

// NewSQLiteDB returns a migrated, private in-memory database closed at test end.
func NewSQLiteDB(t testing.TB) *db.SQLiteDB {
	t.Helper()

	database, err := db.NewSQLiteDB(db.SQLiteMemoryDSN(uuid.NewString()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(database.Close)

	if err := migrations.NewMigrator(database, zerolog.Nop()).Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

// InsertUser adds a user row directly and returns its id.
func InsertUser(t testing.TB, database db.Database, email, role string) int64 {
	t.Helper()

	now := time.Now().UTC()
	query, args, err := database.Dialect().Builder().
		Insert("users").
		Columns("email", "password", "name", "role", "created_at", "updated_at").
		Values(email, "x", email, role, now, now).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		t.Fatal(err)
	}

	var id int64
	if err := database.QueryRow(context.Background(), query, args...).Scan(&id); err != nil {
		t.Fatalf("insert user %s: %v", email, err)
	}
	return id
}

// InsertClass adds a class with the given capacity ending at endAt.
func InsertClass(t testing.TB, database db.Database, capacity int, endAt time.Time) int64 {
	t.Helper()

	now := time.Now().UTC()
	query, args, err := database.Dialect().Builder().
		Insert("classes").
		Columns("title", "description", "start_at", "end_at", "max_participants", "seats_taken", "version", "host_id", "created_at", "updated_at").
		Values("test class", "", endAt.Add(-2*time.Hour), endAt, capacity, 0, 1, 1, now, now).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		t.Fatal(err)
	}

	var id int64
	if err := database.QueryRow(context.Background(), query, args...).Scan(&id); err != nil {
		t.Fatalf("insert class: %v", err)
	}
	return id
}

// SeatsTaken reads the counter straight from the table.
func SeatsTaken(t testing.TB, database db.Database, classID int64) int {
	t.Helper()
	return scanInt(t, database, database.Dialect().Builder().
		Select("seats_taken").From("classes").Where(sq.Eq{"id": classID}))
}

// CountApplies counts application rows for a class, optionally filtered by status.
func CountApplies(t testing.TB, database db.Database, classID int64, statuses ...string) int {
	t.Helper()
	where := sq.And{sq.Eq{"class_id": classID}}
	if len(statuses) > 0 {
		where = append(where, sq.Eq{"status": statuses})
	}
	return scanInt(t, database, database.Dialect().Builder().
		Select("COUNT(*)").From("applies").Where(where))
}

func scanInt(t testing.TB, database db.Database, b sq.SelectBuilder) int {
	t.Helper()
	query, args, err := b.ToSql()
	if err != nil {
		t.Fatal(err)
	}
	var n int
	if err := database.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("scan int: %v", err)
	}
	return n
}
