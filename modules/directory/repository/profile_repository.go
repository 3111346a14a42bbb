package repository

import (
	"context"
	"glee-scheduler/core/database"
	"glee-scheduler/core/logger"
	"glee-scheduler/modules/directory/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Profile, error)
	GetByFeedToken(ctx context.Context, token string) (*entity.Profile, error)
	SetFeedTokenIfEmpty(ctx context.Context, id uuid.UUID, token string) (string, error)
	ListExecBoard(ctx context.Context) ([]entity.Profile, error)
}

type profileRepository struct {
	db database.Database
}

func NewProfileRepository(db database.Database) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, full_name, email, phone, role, is_exec_board, calendar_feed_token, created_at, updated_at`

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		logger.Error("ProfileRepository:GetByID", "id", id, "error", err)
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Profile, error) {
	if len(ids) == 0 {
		return []entity.Profile{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	var profiles []entity.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		logger.Error("ProfileRepository:GetByIDs", "count", len(ids), "error", err)
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) GetByFeedToken(ctx context.Context, token string) (*entity.Profile, error) {
	var profile entity.Profile
	err := r.db.GetContext(ctx, &profile,
		`SELECT `+profileColumns+` FROM profiles WHERE calendar_feed_token = $1`, token)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		logger.Error("ProfileRepository:GetByFeedToken", "error", err)
		return nil, err
	}
	return &profile, nil
}

// SetFeedTokenIfEmpty stores token only when none exists and returns the stored value.
func (r *profileRepository) SetFeedTokenIfEmpty(ctx context.Context, id uuid.UUID, token string) (string, error) {
	var stored string
	err := r.db.GetContext(ctx, &stored, `
		UPDATE profiles
		SET calendar_feed_token = COALESCE(calendar_feed_token, $2), updated_at = NOW()
		WHERE id = $1
		RETURNING calendar_feed_token
	`, id, token)
	if err != nil {
		logger.Error("ProfileRepository:SetFeedTokenIfEmpty", "id", id, "error", err)
		return "", err
	}
	return stored, nil
}

func (r *profileRepository) ListExecBoard(ctx context.Context) ([]entity.Profile, error) {
	var profiles []entity.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT `+profileColumns+` FROM profiles WHERE is_exec_board = true ORDER BY full_name`)
	if err != nil {
		logger.Error("ProfileRepository:ListExecBoard", "error", err)
		return nil, err
	}
	return profiles, nil
}
