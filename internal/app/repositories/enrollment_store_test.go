package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/db"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/testutil"
)

func TestCreateApplicationDuplicate(t *testing.T) {
	database := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	userID := testutil.InsertUser(t, database, "u@example.com", "USER")
	classID := testutil.InsertClass(t, database, 5, time.Now().Add(time.Hour))
	store := NewEnrollmentStore(database, database.Dialect())
	now := time.Now().UTC()

	if _, err := store.CreateApplication(ctx, classID, userID, models.ApplyStatusPending, now); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := store.CreateApplication(ctx, classID, userID, models.ApplyStatusPending, now)
	if !errors.Is(err, apperrors.ErrDuplicateApplication) {
		t.Fatalf("second insert err = %v, want ErrDuplicateApplication", err)
	}
}

func TestFindApplication(t *testing.T) {
	database := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	userID := testutil.InsertUser(t, database, "u@example.com", "USER")
	classID := testutil.InsertClass(t, database, 5, time.Now().Add(time.Hour))
	store := NewEnrollmentStore(database, database.Dialect())

	if _, err := store.FindApplication(ctx, classID, userID); !errors.Is(err, apperrors.ErrApplicationNotFound) {
		t.Fatalf("err = %v, want ErrApplicationNotFound", err)
	}

	created, err := store.CreateApplication(ctx, classID, userID, models.ApplyStatusApproved, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}

	found, err := store.FindApplicationByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if found.ClassID != classID || found.UserID != userID || found.Status != models.ApplyStatusApproved {
		t.Errorf("unexpected application %+v", found)
	}
}

func TestIncrementSeatsStopsAtCapacity(t *testing.T) {
	database := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	classID := testutil.InsertClass(t, database, 2, time.Now().Add(time.Hour))
	store := NewEnrollmentStore(database, database.Dialect())
	now := time.Now().UTC()

	class, err := store.LoadClassForUpdate(ctx, classID)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := store.IncrementSeats(ctx, class, now); err != nil {
			t.Fatalf("increment %d: %v", i+1, err)
		}
	}
	if class.SeatsTaken != 2 || class.Version != 3 {
		t.Errorf("class = seats %d version %d, want 2 and 3", class.SeatsTaken, class.Version)
	}

	if err := store.IncrementSeats(ctx, class, now); !errors.Is(err, apperrors.ErrConcurrentModification) {
		t.Fatalf("increment past capacity err = %v, want ErrConcurrentModification", err)
	}
	if got := testutil.SeatsTaken(t, database, classID); got != 2 {
		t.Errorf("seats_taken = %d, want 2", got)
	}
}

func TestIncrementSeatsStaleVersion(t *testing.T) {
	database := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	classID := testutil.InsertClass(t, database, 5, time.Now().Add(time.Hour))
	store := NewEnrollmentStore(database, database.Dialect())

	fresh, _ := store.LoadClass(ctx, classID)
	stale, _ := store.LoadClass(ctx, classID)

	if err := store.IncrementSeats(ctx, fresh, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	if err := store.IncrementSeats(ctx, stale, time.Now().UTC()); !errors.Is(err, apperrors.ErrConcurrentModification) {
		t.Fatalf("stale increment err = %v, want ErrConcurrentModification", err)
	}
	if got := testutil.SeatsTaken(t, database, classID); got != 1 {
		t.Errorf("seats_taken = %d, want 1", got)
	}
}

func TestDecrementSeatsFloorsAtZero(t *testing.T) {
	database := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	classID := testutil.InsertClass(t, database, 3, time.Now().Add(time.Hour))
	store := NewEnrollmentStore(database, database.Dialect())

	class, err := store.LoadClass(ctx, classID)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.DecrementSeats(ctx, class, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	if class.SeatsTaken != 0 {
		t.Errorf("in-memory seats = %d, want 0", class.SeatsTaken)
	}
	if got := testutil.SeatsTaken(t, database, classID); got != 0 {
		t.Errorf("seats_taken = %d, want 0", got)
	}
}

func TestStoreInsideTransactionRollsBack(t *testing.T) {
	database := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	userID := testutil.InsertUser(t, database, "u@example.com", "USER")
	classID := testutil.InsertClass(t, database, 1, time.Now().Add(time.Hour))
	boom := errors.New("boom")

	err := database.WithTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		store := NewEnrollmentStore(q, database.Dialect())
		class, err := store.LoadClassForUpdate(ctx, classID)
		if err != nil {
			return err
		}
		if _, err := store.CreateApplication(ctx, classID, userID, models.ApplyStatusPending, time.Now().UTC()); err != nil {
			return err
		}
		if err := store.IncrementSeats(ctx, class, time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if got := testutil.SeatsTaken(t, database, classID); got != 0 {
		t.Errorf("seats_taken = %d after rollback, want 0", got)
	}
	if got := testutil.CountApplies(t, database, classID); got != 0 {
		t.Errorf("%d applications after rollback, want 0", got)
	}
}

func TestLoadClassNotFound(t *testing.T) {
	database := testutil.NewSQLiteDB(t)
	store := NewEnrollmentStore(database, database.Dialect())

	if _, err := store.LoadClassForUpdate(context.Background(), 404); !errors.Is(err, apperrors.ErrClassNotFound) {
		t.Fatalf("err = %v, want ErrClassNotFound", err)
	}
}
