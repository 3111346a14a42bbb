package service

import (
	"context"
	stdErrors "errors"
	"glee-scheduler/core/clock"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/params"
	"glee-scheduler/core/queue"
	"glee-scheduler/modules/notification/entity"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	items     []entity.Notification
	createErr error
}

func (r *memoryRepo) Create(ctx context.Context, n *entity.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	n.ID = uuid.New()
	r.items = append(r.items, *n)
	return nil
}

func (r *memoryRepo) GetByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool, p params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	out := []entity.Notification{}
	for _, n := range r.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return &entity.PaginatedNotificationEntity{Items: out, TotalItems: len(out), PageNumber: p.PageNumber, PageSize: p.PageSize}, nil
}

func (r *memoryRepo) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	n := 0
	for i := range r.items {
		if r.items[i].UserID == userID && wanted[r.items[i].ID] && !r.items[i].IsRead {
			r.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for i := range r.items {
		if r.items[i].UserID == userID && !r.items[i].IsRead {
			r.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, item := range r.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func newTestService() (*NotificationService, *memoryRepo) {
	repo := &memoryRepo{}
	return NewNotificationService(repo, clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))), repo
}

func TestHandleDispatchTask_StoresNotification(t *testing.T) {
	svc, repo := newTestService()
	user := uuid.New()

	task, err := queue.NewNotificationTask(queue.NotificationPayload{
		UserID:  user,
		Title:   "Attendance recorded",
		Message: "You are checked in to Dress Rehearsal",
		Type:    "attendance",
		Data:    map[string]any{"is_late": false},
	})
	require.NoError(t, err)

	require.NoError(t, svc.HandleDispatchTask(context.Background(), task))
	require.Len(t, repo.items, 1)
	assert.Equal(t, user, repo.items[0].UserID)
	assert.Equal(t, "attendance", repo.items[0].Type)
	assert.Equal(t, false, repo.items[0].Data["is_late"])
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), repo.items[0].CreatedAt)
}

func TestHandleDispatchTask_MalformedPayloadSkipsRetry(t *testing.T) {
	svc, repo := newTestService()

	err := svc.HandleDispatchTask(context.Background(), asynq.NewTask("notification:dispatch", []byte("{not json")))
	require.Error(t, err)
	assert.True(t, stdErrors.Is(err, asynq.SkipRetry))

	task, _ := queue.NewNotificationTask(queue.NotificationPayload{Title: "no recipient"})
	err = svc.HandleDispatchTask(context.Background(), task)
	assert.True(t, stdErrors.Is(err, asynq.SkipRetry))
	assert.Empty(t, repo.items)
}

func TestHandleDispatchTask_StorageFailureIsRetried(t *testing.T) {
	svc, repo := newTestService()
	repo.createErr = stdErrors.New("connection reset")

	task, _ := queue.NewNotificationTask(queue.NotificationPayload{UserID: uuid.New(), Title: "Meeting called"})
	err := svc.HandleDispatchTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, stdErrors.Is(err, asynq.SkipRetry))
}

func TestEnqueueNotification_DeliversInline(t *testing.T) {
	svc, repo := newTestService()
	var dispatcher queue.Dispatcher = svc

	require.NoError(t, dispatcher.EnqueueNotification(context.Background(), queue.NotificationPayload{UserID: uuid.New(), Title: "Planning session"}))
	assert.Len(t, repo.items, 1)
}

func TestInbox_ReadFlow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()

	first, appErr := svc.Deliver(ctx, queue.NotificationPayload{UserID: user, Title: "one"})
	require.Nil(t, appErr)
	_, appErr = svc.Deliver(ctx, queue.NotificationPayload{UserID: user, Title: "two"})
	require.Nil(t, appErr)
	_, appErr = svc.Deliver(ctx, queue.NotificationPayload{UserID: uuid.New(), Title: "other"})
	require.Nil(t, appErr)

	count, appErr := svc.CountUnread(ctx, user)
	require.Nil(t, appErr)
	assert.Equal(t, 2, count)

	updated, appErr := svc.MarkAsRead(ctx, user, []uuid.UUID{first.ID})
	require.Nil(t, appErr)
	assert.Equal(t, 1, updated)

	unread, appErr := svc.GetMyNotifications(ctx, user, true, params.QueryParams{PageNumber: 1, PageSize: 10})
	require.Nil(t, appErr)
	require.Len(t, unread.Items, 1)
	assert.Equal(t, "two", unread.Items[0].Title)

	updated, appErr = svc.MarkAllAsRead(ctx, user)
	require.Nil(t, appErr)
	assert.Equal(t, 1, updated)

	_, appErr = svc.MarkAsRead(ctx, user, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}
