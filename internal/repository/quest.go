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

type Quest struct {
	ID          uuid.UUID `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Branch      string    `db:"branch"`
	XPReward    int       `db:"xp_reward"`
	Category    string    `db:"category"`
	IsDaily     bool      `db:"is_daily"`
}

func (q *Quest) toModel() *model.Quest {
	return &model.Quest{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Branch:      q.Branch,
		XPReward:    q.XPReward,
		Category:    q.Category,
		IsDaily:     q.IsDaily,
	}
}

func (r *Repository) GetDailyQuests(ctx context.Context, branches []string) ([]*model.Quest, error) {
	query, args, err := squirrel.
		Select("id", "title", "description", "branch", "xp_reward", "category", "is_daily").
		From("quests").
		Where(squirrel.Eq{"branch": branches, "is_daily": true}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var quests []Quest
	err = r.db.SelectContext(ctx, &quests, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Quest, len(quests))
	for i := range quests {
		out[i] = quests[i].toModel()
	}
	return out, nil
}

func (r *Repository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	var quest Quest
	query, args, err := squirrel.
		Select("id", "title", "description", "branch", "xp_reward", "category", "is_daily").
		From("quests").
		Where(squirrel.Eq{"id": questID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &quest, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return quest.toModel(), nil
}

func (r *Repository) GetCompletedQuestIDs(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]struct{}, error) {
	query, args, err := squirrel.
		Select("quest_id").
		From("user_quests").
		Where(squirrel.Eq{"user_id": userID, "completion_date": date}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err = r.db.SelectContext(ctx, &ids, query, args...)
	if err != nil {
		return nil, err
	}

	completed := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		completed[id] = struct{}{}
	}
	return completed, nil
}

// InsertCompletionIfAbsent records the completion unless the (user, quest,
// date) triple already exists. The unique constraint on that triple is the
// concurrency guard: of two racing requests exactly one inserts.
func (r *Repository) InsertCompletionIfAbsent(ctx context.Context, userID, questID uuid.UUID, date time.Time) (bool, error) {
	query, args, err := squirrel.
		Insert("user_quests").
		SetMap(map[string]interface{}{
			"user_id":         userID,
			"quest_id":        questID,
			"completion_date": date,
			"is_today":        true,
		}).
		Suffix("ON CONFLICT (user_id, quest_id, completion_date) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
