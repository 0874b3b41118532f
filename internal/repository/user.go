package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lifequest_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type User struct {
	ID             uuid.UUID      `db:"id"`
	TelegramID     int64          `db:"telegram_id"`
	Username       string         `db:"username"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	LanguageCode   string         `db:"language_code"`
	Age            *int           `db:"age"`
	Gender         *string        `db:"gender"`
	ActiveBranches pq.StringArray `db:"active_branches"`
	IsPro          bool           `db:"is_pro"`
	Strength       int            `db:"strength"`
	Health         int            `db:"health"`
	Intellect      int            `db:"intellect"`
	Agility        int            `db:"agility"`
	Confidence     int            `db:"confidence"`
	Stability      int            `db:"stability"`
	SelfieURL      *string        `db:"selfie_url"`
	AvatarURL      *string        `db:"avatar_url"`
	CreatedAt      time.Time      `db:"created_at"`
	LastActiveAt   time.Time      `db:"last_active_at"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		ID:             u.ID,
		TelegramID:     u.TelegramID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		LanguageCode:   u.LanguageCode,
		Age:            u.Age,
		Gender:         u.Gender,
		ActiveBranches: u.ActiveBranches,
		IsPro:          u.IsPro,
		Stats: model.Stats{
			Strength:   u.Strength,
			Health:     u.Health,
			Intellect:  u.Intellect,
			Agility:    u.Agility,
			Confidence: u.Confidence,
			Stability:  u.Stability,
		},
		SelfieURL:    u.SelfieURL,
		AvatarURL:    u.AvatarURL,
		CreatedAt:    u.CreatedAt,
		LastActiveAt: u.LastActiveAt,
	}
}

// CreateUser inserts the user together with a fresh progress record in one
// transaction.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"id":              user.ID,
				"telegram_id":     user.TelegramID,
				"username":        user.Username,
				"first_name":      user.FirstName,
				"last_name":       user.LastName,
				"language_code":   user.LanguageCode,
				"active_branches": pq.Array(user.ActiveBranches),
				"is_pro":          user.IsPro,
				"strength":        user.Stats.Strength,
				"health":          user.Stats.Health,
				"intellect":       user.Stats.Intellect,
				"agility":         user.Stats.Agility,
				"confidence":      user.Stats.Confidence,
				"stability":       user.Stats.Stability,
				"avatar_url":      user.AvatarURL,
				"created_at":      user.CreatedAt,
				"last_active_at":  user.LastActiveAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		progress := model.NewProgress(user.ID)
		progressQuery, progressArgs, err := squirrel.
			Insert("progress").
			SetMap(map[string]interface{}{
				"user_id":       progress.UserID,
				"current_level": progress.CurrentLevel,
				"current_xp":    progress.CurrentXP,
				"next_level_xp": progress.NextLevelXP,
				"total_xp":      progress.TotalXP,
				"goal_level":    progress.GoalLevel,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build progress insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, progressQuery, progressArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert progress: %w", err)
		}

		return nil
	})
}

func (r *Repository) getUserBy(ctx context.Context, pred squirrel.Eq) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(pred).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return r.getUserBy(ctx, squirrel.Eq{"telegram_id": telegramID})
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return r.getUserBy(ctx, squirrel.Eq{"id": userID})
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUserBy(ctx, squirrel.Eq{"username": username})
}

func (r *Repository) UpdateOnboarding(ctx context.Context, telegramID int64, data model.OnboardingData) error {
	query, args, err := squirrel.
		Update("users").
		SetMap(map[string]interface{}{
			"age":             data.Age,
			"gender":          data.Gender,
			"active_branches": pq.Array([]string{data.Branch}),
			"selfie_url":      data.SelfieURL,
		}).
		Where(squirrel.Eq{"telegram_id": telegramID}).
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

// UpdateStats applies the growth delta additively so concurrent level-ups
// for the same user never lose increments.
func (r *Repository) UpdateStats(ctx context.Context, userID uuid.UUID, delta model.Stats) error {
	query, args, err := squirrel.
		Update("users").
		Set("strength", squirrel.Expr("strength + ?", delta.Strength)).
		Set("health", squirrel.Expr("health + ?", delta.Health)).
		Set("intellect", squirrel.Expr("intellect + ?", delta.Intellect)).
		Set("agility", squirrel.Expr("agility + ?", delta.Agility)).
		Set("confidence", squirrel.Expr("confidence + ?", delta.Confidence)).
		Set("stability", squirrel.Expr("stability + ?", delta.Stability)).
		Where(squirrel.Eq{"id": userID}).
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

func (r *Repository) SetPro(ctx context.Context, telegramID int64) error {
	query, args, err := squirrel.
		Update("users").
		Set("is_pro", true).
		Where(squirrel.Eq{"telegram_id": telegramID}).
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

// AddBranch appends the branch if absent, under a row lock so two
// concurrent adds keep the set ordered and duplicate-free.
func (r *Repository) AddBranch(ctx context.Context, telegramID int64, branch string) ([]string, error) {
	var branches []string

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var current pq.StringArray
		query, args, err := squirrel.
			Select("active_branches").
			From("users").
			Where(squirrel.Eq{"telegram_id": telegramID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &current, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		branches = current
		for _, b := range branches {
			if b == branch {
				return nil
			}
		}
		branches = append(branches, branch)

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("active_branches", pq.Array(branches)).
			Where(squirrel.Eq{"telegram_id": telegramID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		return err
	})
	if err != nil {
		return nil, err
	}

	return branches, nil
}

func (r *Repository) SetAvatarURL(ctx context.Context, userID uuid.UUID, avatarURL *string) error {
	query, args, err := squirrel.
		Update("users").
		Set("avatar_url", avatarURL).
		Where(squirrel.Eq{"id": userID}).
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

func (r *Repository) TouchLastActive(ctx context.Context, telegramID int64) error {
	query, args, err := squirrel.
		Update("users").
		Set("last_active_at", time.Now().UTC()).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) GetActiveUsersSince(ctx context.Context, since time.Time) ([]*model.User, error) {
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.GtOrEq{"last_active_at": since}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []User
	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.User, len(users))
	for i := range users {
		out[i] = users[i].toModel()
	}
	return out, nil
}

// DeleteUser removes the user and every dependent record.
func (r *Repository) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"user_quests", "goals", "avatar_generations", "progress"} {
			query, args, err := squirrel.
				Delete(table).
				Where(squirrel.Eq{"user_id": userID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to delete from %s: %w", table, err)
			}
		}

		query, args, err := squirrel.
			Delete("users").
			Where(squirrel.Eq{"id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return requireRows(result)
	})
}

func (r *Repository) InsertAvatarGeneration(ctx context.Context, gen *model.AvatarGeneration) error {
	query, args, err := squirrel.
		Insert("avatar_generations").
		SetMap(map[string]interface{}{
			"id":                gen.ID,
			"user_id":           gen.UserID,
			"level":             gen.Level,
			"avatar_url":        gen.AvatarURL,
			"generation_status": gen.Status,
			"created_at":        gen.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func requireRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
