package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lifequest_miniapp/internal/leveling"
	"lifequest_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Progress struct {
	UserID       uuid.UUID `db:"user_id"`
	CurrentLevel int       `db:"current_level"`
	CurrentXP    int       `db:"current_xp"`
	NextLevelXP  int       `db:"next_level_xp"`
	TotalXP      int       `db:"total_xp"`
	GoalText     *string   `db:"goal_text"`
	GoalLevel    int       `db:"goal_level"`
}

func (r *Repository) GetProgress(ctx context.Context, userID uuid.UUID) (*model.Progress, error) {
	var progress Progress
	query, args, err := squirrel.
		Select("user_id", "current_level", "current_xp", "next_level_xp", "total_xp", "goal_text", "goal_level").
		From("progress").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &progress, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.Progress{
		UserID:       progress.UserID,
		CurrentLevel: progress.CurrentLevel,
		CurrentXP:    progress.CurrentXP,
		NextLevelXP:  progress.NextLevelXP,
		TotalXP:      progress.TotalXP,
		GoalText:     progress.GoalText,
		GoalLevel:    progress.GoalLevel,
	}, nil
}

// AwardXP adds XP and resolves level-ups in one transaction. The progress
// row is locked for the duration, so concurrent awards for the same user
// serialize and no XP is ever lost.
func (r *Repository) AwardXP(ctx context.Context, userID uuid.UUID, amount int) (bool, int, error) {
	if err := leveling.ValidateAmount(amount); err != nil {
		return false, 0, err
	}

	var leveledUp bool
	var newLevel int

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var progress Progress
		query, args, err := squirrel.
			Select("user_id", "current_level", "current_xp", "next_level_xp", "total_xp").
			From("progress").
			Where(squirrel.Eq{"user_id": userID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &progress, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		state := leveling.State{
			Level:       progress.CurrentLevel,
			XP:          progress.CurrentXP,
			NextLevelXP: progress.NextLevelXP,
			TotalXP:     progress.TotalXP,
		}
		state, leveledUp, err = leveling.Award(state, r.curve, amount)
		if err != nil {
			return err
		}
		newLevel = state.Level

		updateQuery, updateArgs, err := squirrel.
			Update("progress").
			SetMap(map[string]interface{}{
				"current_level": state.Level,
				"current_xp":    state.XP,
				"next_level_xp": state.NextLevelXP,
				"total_xp":      state.TotalXP,
			}).
			Where(squirrel.Eq{"user_id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	return leveledUp, newLevel, nil
}

func (r *Repository) SetProgressGoal(ctx context.Context, userID uuid.UUID, goalText *string, goalLevel int) error {
	query, args, err := squirrel.
		Update("progress").
		SetMap(map[string]interface{}{
			"goal_text":  goalText,
			"goal_level": goalLevel,
		}).
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRows(result)
}
