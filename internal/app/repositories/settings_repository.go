package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/db"
	"github.com/yigit/mclass/internal/pkg/apperrors"
)

const seatPolicySetting = "seat_policy"

// SettingsRepository stores deployment settings that must not change once data exists
type SettingsRepository struct {
	db db.Database
	sb sq.StatementBuilderType
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(database db.Database) *SettingsRepository {
	return &SettingsRepository{
		db: database,
		sb: database.Dialect().Builder(),
	}
}

// PinSeatPolicy records policy on first start. Later starts must use the same
// policy, since seats_taken was counted under it.
func (r *SettingsRepository) PinSeatPolicy(ctx context.Context, policy models.SeatPolicy) error {
	insert, args, err := r.sb.Insert("app_settings").
		Columns("name", "value").
		Values(seatPolicySetting, string(policy)).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	if _, err := r.db.Exec(ctx, insert, args...); err != nil {
		return fmt.Errorf("error recording seat policy: %w", err)
	}

	query, args, err := r.sb.Select("value").From("app_settings").
		Where(sq.Eq{"name": seatPolicySetting}).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	var stored string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&stored); err != nil {
		return fmt.Errorf("error reading seat policy: %w", err)
	}

	if models.SeatPolicy(stored) != policy {
		return fmt.Errorf("%w: database uses %q, configured %q", apperrors.ErrSeatPolicyMismatch, stored, policy)
	}
	return nil
}
