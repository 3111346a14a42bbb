package service

import (
	"context"
	"encoding/base64"
	stdErrors "errors"
	"fmt"
	"glee-scheduler/core/clock"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/database"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/logger"
	"glee-scheduler/core/queue"
	"glee-scheduler/core/storage"
	"glee-scheduler/core/utils"
	"glee-scheduler/modules/attendance/dto"
	"glee-scheduler/modules/attendance/entity"
	calendarentity "glee-scheduler/modules/calendar/entity"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const qrCodeSize = 256

var errTokenRace = stdErrors.New("scan token changed state during verification")

type EventLookup interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*calendarentity.Event, *errors.AppError)
}

type Repository interface {
	ScanStore
	CreateToken(ctx context.Context, token *entity.ScanToken) (*entity.ScanToken, error)
	GetActiveToken(ctx context.Context, eventID uuid.UUID, now time.Time) (*entity.ScanToken, error)
	DeactivateToken(ctx context.Context, token string) (bool, error)
	ListRecords(ctx context.Context, eventID uuid.UUID) ([]entity.AttendanceRecord, error)
}

type AttendanceServiceInterface interface {
	IssueToken(ctx context.Context, issuedBy, eventID uuid.UUID, req *dto.IssueTokenRequest) (*dto.IssuedToken, *errors.AppError)
	ActiveToken(ctx context.Context, eventID uuid.UUID) (*entity.ScanToken, *errors.AppError)
	DeactivateToken(ctx context.Context, token string) *errors.AppError
	ScanHistory(ctx context.Context, eventID uuid.UUID) ([]entity.AttendanceRecord, *errors.AppError)
	VerifyScan(ctx context.Context, token string, userID uuid.UUID) (*entity.ScanResult, *errors.AppError)
}

type AttendanceService struct {
	repo                Repository
	events              EventLookup
	objects             storage.ObjectStore
	dispatcher          queue.Dispatcher
	clock               clock.Clock
	defaultTokenMinutes int
}

func NewAttendanceService(repo Repository, events EventLookup, objects storage.ObjectStore, dispatcher queue.Dispatcher, clk clock.Clock, defaultTokenMinutes int) *AttendanceService {
	if defaultTokenMinutes <= 0 || defaultTokenMinutes > constants.MaxTokenMinutes {
		defaultTokenMinutes = constants.DefaultTokenMinutes
	}
	return &AttendanceService{
		repo:                repo,
		events:              events,
		objects:             objects,
		dispatcher:          dispatcher,
		clock:               clk,
		defaultTokenMinutes: defaultTokenMinutes,
	}
}

// IssueToken mints a scan token for an event that takes attendance, with a QR code
// whose payload is exactly the token.
func (s *AttendanceService) IssueToken(ctx context.Context, issuedBy, eventID uuid.UUID, req *dto.IssueTokenRequest) (*dto.IssuedToken, *errors.AppError) {
	minutes := s.defaultTokenMinutes
	if req != nil && req.ExpiresInMinutes != nil {
		minutes = *req.ExpiresInMinutes
	}
	if minutes < 0 || minutes > constants.MaxTokenMinutes {
		return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("expires_in_minutes must be between 0 and %d", constants.MaxTokenMinutes), nil)
	}

	event, appErr := s.events.GetEvent(ctx, eventID)
	if appErr != nil {
		return nil, appErr
	}
	if !event.AttendanceRequired {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Event does not take attendance", nil)
	}

	value, err := utils.GenerateOpaqueToken(utils.ScanTokenLength)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to generate token", err)
	}

	now := s.clock.Now().UTC()
	token := &entity.ScanToken{
		Token:    value,
		EventID:  eventID,
		IssuedBy: &issuedBy,
		IssuedAt: now,
		State:    entity.TokenStateActive,
	}
	if minutes > 0 {
		expires := now.Add(time.Duration(minutes) * time.Minute)
		token.ExpiresAt = &expires
	}

	png, err := qrcode.Encode(value, qrcode.Medium, qrCodeSize)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to render QR code", err)
	}

	issued := &dto.IssuedToken{}
	if s.objects != nil {
		key := fmt.Sprintf("attendance/%s/%s.png", eventID, value)
		url, err := s.objects.Put(ctx, key, png, "image/png")
		if err != nil {
			logger.Warn("AttendanceService:IssueToken:UploadQR", "event_id", eventID, "error", err)
			issued.QRCodePNG = base64.StdEncoding.EncodeToString(png)
		} else {
			token.QRCodeURL = &url
		}
	} else {
		issued.QRCodePNG = base64.StdEncoding.EncodeToString(png)
	}

	created, err := s.repo.CreateToken(ctx, token)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to issue token", err)
	}
	issued.ScanToken = *created

	logger.Info("AttendanceService:IssueToken", "event_id", eventID, "token_id", created.ID, "expires_at", created.ExpiresAt)
	return issued, nil
}

func (s *AttendanceService) ActiveToken(ctx context.Context, eventID uuid.UUID) (*entity.ScanToken, *errors.AppError) {
	token, err := s.repo.GetActiveToken(ctx, eventID, s.clock.Now())
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to load token", err)
	}
	if token == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "No active token for this event", nil)
	}
	return token, nil
}

func (s *AttendanceService) DeactivateToken(ctx context.Context, token string) *errors.AppError {
	found, err := s.repo.DeactivateToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "Failed to deactivate token", err)
	}
	if !found {
		return errors.NewAppError(errors.ErrNotFound, "Active token not found", nil)
	}
	return nil
}

func (s *AttendanceService) ScanHistory(ctx context.Context, eventID uuid.UUID) ([]entity.AttendanceRecord, *errors.AppError) {
	records, err := s.repo.ListRecords(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to load attendance", err)
	}
	if records == nil {
		records = []entity.AttendanceRecord{}
	}
	return records, nil
}

// VerifyScan records attendance for userID when token is valid. Rejections are
// results, not errors; an error means storage failed.
func (s *AttendanceService) VerifyScan(ctx context.Context, token string, userID uuid.UUID) (*entity.ScanResult, *errors.AppError) {
	if userID == uuid.Nil {
		result := entity.Rejected(entity.ReasonUnauthenticated)
		return &result, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		result := entity.Rejected(entity.ReasonInvalidToken)
		return &result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	scannedAt := s.clock.Now()
	var result entity.ScanResult
	err := database.Retry(ctx, constants.PrimaryWriteAttempts, constants.PrimaryWriteBaseDelay, func() error {
		return s.repo.RunInTx(ctx, func(tx ScanTx) error {
			var verifyErr error
			result, verifyErr = verify(ctx, tx, token, userID, scannedAt)
			return verifyErr
		})
	})
	if err != nil {
		code := errors.ErrInternalServer
		if database.IsTransient(err) {
			code = errors.ErrTransient
		}
		logger.Error("AttendanceService:VerifyScan", "user_id", userID, "error", err)
		return nil, errors.NewAppError(code, "Failed to verify scan", err)
	}

	if result.Accepted {
		logger.Info("AttendanceService:VerifyScan:Accepted", "event_id", result.Event.ID, "user_id", userID, "is_late", result.IsLate)
		s.notifyAccepted(ctx, userID, result)
	} else {
		logger.Info("AttendanceService:VerifyScan:Rejected", "user_id", userID, "reason", result.Reason)
	}
	return &result, nil
}

func (s *AttendanceService) notifyAccepted(ctx context.Context, userID uuid.UUID, result entity.ScanResult) {
	if s.dispatcher == nil {
		return
	}
	message := fmt.Sprintf("You are checked in to %s", result.Event.Title)
	if result.IsLate {
		message += " (late)"
	}
	err := s.dispatcher.EnqueueNotification(ctx, queue.NotificationPayload{
		UserID:  userID,
		Title:   "Attendance recorded",
		Message: message,
		Type:    "attendance",
		Data:    map[string]any{"event_id": result.Event.ID, "is_late": result.IsLate},
	})
	if err != nil {
		logger.Warn("AttendanceService:notifyAccepted", "user_id", userID, "error", err)
	}
}
