package service

import (
	"context"
	"fmt"
	"glee-scheduler/core/clock"
	coreEntity "glee-scheduler/core/entity"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/logger"
	"glee-scheduler/core/params"
	"glee-scheduler/core/queue"
	"glee-scheduler/modules/notification/entity"
	"glee-scheduler/modules/notification/repository"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type NotificationServiceInterface interface {
	Deliver(ctx context.Context, payload queue.NotificationPayload) (*entity.Notification, *errors.AppError)
	GetMyNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, *errors.AppError)
	MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, *errors.AppError)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, *errors.AppError)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, *errors.AppError)
}

type NotificationService struct {
	repo  repository.NotificationRepositoryInterface
	clock clock.Clock
}

func NewNotificationService(repo repository.NotificationRepositoryInterface, clk clock.Clock) *NotificationService {
	return &NotificationService{repo: repo, clock: clk}
}

// Deliver writes one inbox entry for payload.UserID.
func (s *NotificationService) Deliver(ctx context.Context, payload queue.NotificationPayload) (*entity.Notification, *errors.AppError) {
	if payload.UserID == uuid.Nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Notification recipient is required", nil)
	}
	if strings.TrimSpace(payload.Title) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Notification title is required", nil)
	}

	now := s.clock.Now()
	notif := &entity.Notification{
		UserID:  payload.UserID,
		Title:   payload.Title,
		Message: payload.Message,
		Type:    payload.Type,
		Data:    entity.JSONB(payload.Data),
		IsRead:  false,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if err := s.repo.Create(ctx, notif); err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to store notification", err)
	}
	return notif, nil
}

// HandleDispatchTask is the asynq handler for notification:dispatch. Malformed
// payloads are not retried.
func (s *NotificationService) HandleDispatchTask(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseNotificationTask(task)
	if err != nil {
		logger.Error("NotificationService:HandleDispatchTask:Parse", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	notif, appErr := s.Deliver(ctx, payload)
	if appErr != nil {
		if appErr.Code == errors.ErrInvalidInput {
			return fmt.Errorf("%w: %s", asynq.SkipRetry, appErr.Message)
		}
		return appErr
	}
	logger.Debug("NotificationService:HandleDispatchTask", "notification_id", notif.ID, "user_id", notif.UserID, "type", notif.Type)
	return nil
}

// EnqueueNotification delivers synchronously. It lets the service stand in for
// the queue dispatcher when no redis is configured.
func (s *NotificationService) EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) error {
	if _, appErr := s.Deliver(ctx, payload); appErr != nil {
		return appErr
	}
	return nil
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, *errors.AppError) {
	result, err := s.repo.GetByUserID(ctx, userID, unreadOnly, queryParams)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get notifications", err)
	}
	return result, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, *errors.AppError) {
	if len(ids) == 0 {
		return 0, errors.NewAppError(errors.ErrInvalidInput, "ids is required", nil)
	}
	n, err := s.repo.MarkAsRead(ctx, userID, ids)
	if err != nil {
		return 0, errors.NewAppError(errors.ErrUpdateFailed, "Failed to mark as read", err)
	}
	return n, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, *errors.AppError) {
	n, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, errors.NewAppError(errors.ErrUpdateFailed, "Failed to mark all as read", err)
	}
	return n, nil
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, *errors.AppError) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, errors.NewAppError(errors.ErrGetFailed, "Failed to count unread", err)
	}
	return count, nil
}
