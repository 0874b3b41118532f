package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lifequest_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type Goal struct {
	ID          uuid.UUID  `db:"id"`
	UserID      uuid.UUID  `db:"user_id"`
	GoalText    string     `db:"goal_text"`
	GoalLevel   int        `db:"goal_level"`
	IsCompleted bool       `db:"is_completed"`
	CompletedAt *time.Time `db:"completed_at"`
	NotifiedAt  *time.Time `db:"notified_at"`
	Notes       *string    `db:"notes"`
	ImageURL    *string    `db:"image_url"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (g *Goal) toModel() *model.Goal {
	return &model.Goal{
		ID:          g.ID,
		UserID:      g.UserID,
		GoalText:    g.GoalText,
		GoalLevel:   g.GoalLevel,
		IsCompleted: g.IsCompleted,
		CompletedAt: g.CompletedAt,
		NotifiedAt:  g.NotifiedAt,
		Notes:       g.Notes,
		ImageURL:    g.ImageURL,
		CreatedAt:   g.CreatedAt,
	}
}

func (r *Repository) CreateGoal(ctx context.Context, goal *model.Goal) error {
	query, args, err := squirrel.
		Insert("goals").
		SetMap(map[string]interface{}{
			"id":           goal.ID,
			"user_id":      goal.UserID,
			"goal_text":    goal.GoalText,
			"goal_level":   goal.GoalLevel,
			"is_completed": goal.IsCompleted,
			"notes":        goal.Notes,
			"image_url":    goal.ImageURL,
			"created_at":   goal.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) getGoals(ctx context.Context, pred interface{}) ([]*model.Goal, error) {
	query, args, err := squirrel.
		Select("id", "user_id", "goal_text", "goal_level", "is_completed", "completed_at", "notified_at", "notes", "image_url", "created_at").
		From("goals").
		Where(pred).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var goals []Goal
	err = r.db.SelectContext(ctx, &goals, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Goal, len(goals))
	for i := range goals {
		out[i] = goals[i].toModel()
	}
	return out, nil
}

func (r *Repository) GetGoals(ctx context.Context, userID uuid.UUID) ([]*model.Goal, error) {
	return r.getGoals(ctx, squirrel.Eq{"user_id": userID})
}

// GetOpenGoals returns the goals still eligible for achievement checks.
func (r *Repository) GetOpenGoals(ctx context.Context, userID uuid.UUID) ([]*model.Goal, error) {
	return r.getGoals(ctx, squirrel.Eq{"user_id": userID, "is_completed": false})
}

func (r *Repository) GetGoalByID(ctx context.Context, userID, goalID uuid.UUID) (*model.Goal, error) {
	var goal Goal
	query, args, err := squirrel.
		Select("id", "user_id", "goal_text", "goal_level", "is_completed", "completed_at", "notified_at", "notes", "image_url", "created_at").
		From("goals").
		Where(squirrel.Eq{"id": goalID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &goal, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return goal.toModel(), nil
}

func (r *Repository) UpdateGoal(ctx context.Context, userID, goalID uuid.UUID, upd model.GoalUpdate) (*model.Goal, error) {
	fields := map[string]interface{}{}
	if upd.GoalText != nil {
		fields["goal_text"] = *upd.GoalText
	}
	if upd.GoalLevel != nil {
		fields["goal_level"] = *upd.GoalLevel
	}
	if upd.Notes != nil {
		fields["notes"] = *upd.Notes
	}
	if upd.ImageURL != nil {
		fields["image_url"] = *upd.ImageURL
	}

	if len(fields) > 0 {
		query, args, err := squirrel.
			Update("goals").
			SetMap(fields).
			Where(squirrel.Eq{"id": goalID, "user_id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return nil, err
		}

		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		if err := requireRows(result); err != nil {
			return nil, err
		}
	}

	return r.GetGoalByID(ctx, userID, goalID)
}

// CompleteGoal flips is_completed once; the completion timestamp is kept
// from the first call.
func (r *Repository) CompleteGoal(ctx context.Context, userID, goalID uuid.UUID, at time.Time) (*model.Goal, error) {
	query, args, err := squirrel.
		Update("goals").
		Set("is_completed", true).
		Set("completed_at", squirrel.Expr("COALESCE(completed_at, ?)", at)).
		Where(squirrel.Eq{"id": goalID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := requireRows(result); err != nil {
		return nil, err
	}

	return r.GetGoalByID(ctx, userID, goalID)
}

// MarkGoalNotified sets notified_at once. A goal that already carries the
// timestamp is left untouched, so a congratulation can never repeat.
func (r *Repository) MarkGoalNotified(ctx context.Context, goalID uuid.UUID, at time.Time) error {
	query, args, err := squirrel.
		Update("goals").
		Set("notified_at", at).
		Where(squirrel.Eq{"id": goalID}).
		Where("notified_at IS NULL").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
