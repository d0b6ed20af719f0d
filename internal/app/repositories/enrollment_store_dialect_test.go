package repositories

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yigit/mclass/internal/db"
	"github.com/yigit/mclass/internal/pkg/apperrors"
)

type recordedQuery struct {
	sql  string
	args []any
}

// recordingQuerier captures statements and answers every row lookup with no rows.
type recordingQuerier struct {
	queries []recordedQuery
}

type emptyRow struct{}

func (emptyRow) Scan(...any) error { return db.ErrNoRows }

func (r *recordingQuerier) Exec(_ context.Context, query string, args ...any) (int64, error) {
	r.queries = append(r.queries, recordedQuery{query, args})
	return 0, nil
}

func (r *recordingQuerier) QueryRow(_ context.Context, query string, args ...any) db.Row {
	r.queries = append(r.queries, recordedQuery{query, args})
	return emptyRow{}
}

func (r *recordingQuerier) Query(_ context.Context, query string, args ...any) (db.Rows, error) {
	r.queries = append(r.queries, recordedQuery{query, args})
	return nil, errors.New("not supported")
}

func TestLoadClassForUpdateQueryPerDialect(t *testing.T) {
	tests := []struct {
		name    string
		dialect db.Dialect
		suffix  string
	}{
		{"postgres", db.PostgresDialect, "FROM classes WHERE id = $1 FOR UPDATE"},
		{"sqlite", db.SQLiteDialect, "FROM classes WHERE id = ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &recordingQuerier{}
			store := NewEnrollmentStore(q, tt.dialect)

			if _, err := store.LoadClassForUpdate(context.Background(), 42); !errors.Is(err, apperrors.ErrClassNotFound) {
				t.Fatalf("err = %v, want ErrClassNotFound", err)
			}
			if len(q.queries) != 1 {
				t.Fatalf("queries = %d, want 1", len(q.queries))
			}
			got := q.queries[0]
			if !strings.HasPrefix(got.sql, "SELECT id, title,") || !strings.HasSuffix(got.sql, tt.suffix) {
				t.Errorf("sql = %q, want suffix %q", got.sql, tt.suffix)
			}
			if len(got.args) != 1 || got.args[0] != int64(42) {
				t.Errorf("args = %v, want [42]", got.args)
			}
		})
	}
}

func TestLoadClassTakesNoRowLock(t *testing.T) {
	q := &recordingQuerier{}
	store := NewEnrollmentStore(q, db.PostgresDialect)

	_, _ = store.LoadClass(context.Background(), 7)
	if len(q.queries) != 1 || strings.Contains(q.queries[0].sql, "FOR UPDATE") {
		t.Fatalf("queries = %+v", q.queries)
	}
	if !strings.HasSuffix(q.queries[0].sql, "WHERE id = $1") {
		t.Errorf("sql = %q", q.queries[0].sql)
	}
}
