package service

import (
	"context"
	"crypto/subtle"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/database"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/logger"
	"glee-scheduler/core/utils"
	"glee-scheduler/modules/directory/entity"
	"glee-scheduler/modules/directory/repository"

	"github.com/google/uuid"
)

// DirectoryService is the read side of the member directory used by the scheduling engine.
type DirectoryService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*entity.Profile, *errors.AppError)
	LookupProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Profile, *errors.AppError)
	ListExecBoard(ctx context.Context) ([]entity.Profile, *errors.AppError)
	EnsureFeedToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError)
	ResolveFeedToken(ctx context.Context, token string) (*entity.Profile, bool)
}

type directoryService struct {
	repo repository.ProfileRepository
}

func NewDirectoryService(repo repository.ProfileRepository) DirectoryService {
	return &directoryService{repo: repo}
}

func (s *directoryService) GetProfile(ctx context.Context, id uuid.UUID) (*entity.Profile, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DirectoryLookupTimeout)
	defer cancel()

	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to load profile", err)
	}
	if profile == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Profile not found", nil)
	}
	return profile, nil
}

// LookupProfiles returns the profiles that exist; missing ids are simply absent from the map.
func (s *directoryService) LookupProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Profile, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DirectoryLookupTimeout)
	defer cancel()

	profiles, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		code := errors.ErrGetFailed
		if database.IsTransient(err) || ctx.Err() != nil {
			code = errors.ErrTransient
		}
		return nil, errors.NewAppError(code, "Directory lookup failed", err)
	}

	result := make(map[uuid.UUID]entity.Profile, len(profiles))
	for _, p := range profiles {
		result[p.ID] = p
	}
	return result, nil
}

func (s *directoryService) ListExecBoard(ctx context.Context) ([]entity.Profile, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DirectoryLookupTimeout)
	defer cancel()

	profiles, err := s.repo.ListExecBoard(ctx)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to load executive board", err)
	}
	return profiles, nil
}

// EnsureFeedToken mints the caller's calendar feed token on first use and returns the stored one afterwards.
func (s *directoryService) EnsureFeedToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError) {
	profile, appErr := s.GetProfile(ctx, userID)
	if appErr != nil {
		return "", appErr
	}
	if profile.CalendarFeedToken != nil && *profile.CalendarFeedToken != "" {
		return *profile.CalendarFeedToken, nil
	}

	candidate, err := utils.GenerateOpaqueToken(utils.FeedTokenLength)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to generate feed token", err)
	}

	stored, err := s.repo.SetFeedTokenIfEmpty(ctx, userID, candidate)
	if err != nil {
		if database.IsNotFound(err) {
			return "", errors.NewAppError(errors.ErrNotFound, "Profile not found", err)
		}
		return "", errors.NewAppError(errors.ErrUpdateFailed, "Failed to store feed token", err)
	}

	logger.Info("DirectoryService:EnsureFeedToken:Minted", "user_id", userID)
	return stored, nil
}

// ResolveFeedToken never reports why a token failed to resolve.
func (s *directoryService) ResolveFeedToken(ctx context.Context, token string) (*entity.Profile, bool) {
	if token == "" {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DirectoryLookupTimeout)
	defer cancel()

	profile, err := s.repo.GetByFeedToken(ctx, token)
	if err != nil {
		logger.Warn("DirectoryService:ResolveFeedToken:LookupFailed", "error", err)
		return nil, false
	}
	if profile == nil || profile.CalendarFeedToken == nil {
		return nil, false
	}
	if subtle.ConstantTimeCompare([]byte(*profile.CalendarFeedToken), []byte(token)) != 1 {
		return nil, false
	}
	return profile, true
}
