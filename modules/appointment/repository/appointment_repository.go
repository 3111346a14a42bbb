package repository

import (
	"context"
	"fmt"
	"glee-scheduler/core/database"
	"glee-scheduler/core/logger"
	"glee-scheduler/core/params"
	"glee-scheduler/modules/appointment/entity"
	"strings"

	"github.com/google/uuid"
)

type AppointmentRepositoryInterface interface {
	// Appointments
	CreateAppointment(ctx context.Context, appointment *entity.Appointment) (*entity.Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	ListAppointments(ctx context.Context, filter entity.AppointmentFilter, page params.QueryParams) ([]entity.Appointment, int, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status entity.AppointmentStatus) (bool, error)

	// Team members
	AddTeamMember(ctx context.Context, member *entity.EventTeamMember) error
	ListTeamMembers(ctx context.Context, eventID uuid.UUID) ([]entity.EventTeamMember, error)
	RemoveTeamMember(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
}

type AppointmentRepository struct {
	DB database.Database
}

func NewAppointmentRepository(db database.Database) *AppointmentRepository {
	return &AppointmentRepository{DB: db}
}

const appointmentColumns = `id, event_id, participant_id, title, description, participant_name, participant_email,
	participant_phone, scheduled_at, duration_minutes, appointment_type, status, created_by, assigned_to,
	created_at, updated_at`

// ===================== Appointments =====================

// CreateAppointment inserts an appointment. A participant already holding the same
// slot for the event gets the existing row back, so a retried insert never duplicates.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment *entity.Appointment) (*entity.Appointment, error) {
	query := `
		INSERT INTO appointments (event_id, participant_id, title, description, participant_name, participant_email,
			participant_phone, scheduled_at, duration_minutes, appointment_type, status, created_by, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (event_id, participant_id, scheduled_at) DO UPDATE SET updated_at = appointments.updated_at
		RETURNING ` + appointmentColumns

	var created entity.Appointment
	err := r.DB.GetContext(ctx, &created, query,
		appointment.EventID, appointment.ParticipantID, appointment.Title, appointment.Description,
		appointment.ParticipantName, appointment.ParticipantEmail, appointment.ParticipantPhone,
		appointment.ScheduledAt, appointment.DurationMinutes, appointment.AppointmentType,
		appointment.Status, appointment.CreatedBy, appointment.AssignedTo)
	if err != nil {
		logger.Error("AppointmentRepository:CreateAppointment", "participant", appointment.ParticipantEmail, "error", err)
		return nil, err
	}
	return &created, nil
}

func (r *AppointmentRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := r.DB.GetContext(ctx, &appointment, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		logger.Error("AppointmentRepository:GetAppointmentByID", "id", id, "error", err)
		return nil, err
	}
	return &appointment, nil
}

func (r *AppointmentRepository) ListAppointments(ctx context.Context, filter entity.AppointmentFilter, page params.QueryParams) ([]entity.Appointment, int, error) {
	var (
		conditions []string
		args       []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		conditions = append(conditions, "status = "+next(string(*filter.Status)))
	}
	if filter.DayStart != nil {
		conditions = append(conditions, "scheduled_at >= "+next(*filter.DayStart))
	}
	if filter.DayEnd != nil {
		conditions = append(conditions, "scheduled_at < "+next(*filter.DayEnd))
	}
	if page.Search != "" {
		placeholder := next("%" + page.Search + "%")
		conditions = append(conditions, "(participant_name ILIKE "+placeholder+" OR title ILIKE "+placeholder+")")
	}

	baseQuery := ` FROM appointments`
	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, "SELECT COUNT(*)"+baseQuery, args...); err != nil {
		logger.Error("AppointmentRepository:ListAppointments:Count", "error", err)
		return nil, 0, err
	}

	query := "SELECT " + appointmentColumns + baseQuery +
		" ORDER BY scheduled_at ASC LIMIT " + next(page.PageSize) + " OFFSET " + next(page.Offset())

	var appointments []entity.Appointment
	if err := r.DB.SelectContext(ctx, &appointments, query, args...); err != nil {
		logger.Error("AppointmentRepository:ListAppointments:Select", "error", err)
		return nil, 0, err
	}
	return appointments, total, nil
}

func (r *AppointmentRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status entity.AppointmentStatus) (bool, error) {
	result, err := r.DB.SQLx().ExecContext(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		logger.Error("AppointmentRepository:UpdateAppointmentStatus", "id", id, "error", err)
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected == 1, err
}

// ===================== Team members =====================

func (r *AppointmentRepository) AddTeamMember(ctx context.Context, member *entity.EventTeamMember) error {
	query := `
		INSERT INTO event_team_members (event_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`
	if err := r.DB.ExecContext(ctx, query, member.EventID, member.UserID, member.RoleLabel); err != nil {
		logger.Error("AppointmentRepository:AddTeamMember", "event_id", member.EventID, "user_id", member.UserID, "error", err)
		return err
	}
	return nil
}

func (r *AppointmentRepository) ListTeamMembers(ctx context.Context, eventID uuid.UUID) ([]entity.EventTeamMember, error) {
	var members []entity.EventTeamMember
	err := r.DB.SelectContext(ctx, &members, `
		SELECT event_id, user_id, role, created_at
		FROM event_team_members
		WHERE event_id = $1
		ORDER BY created_at ASC, user_id ASC
	`, eventID)
	if err != nil {
		logger.Error("AppointmentRepository:ListTeamMembers", "event_id", eventID, "error", err)
		return nil, err
	}
	return members, nil
}

func (r *AppointmentRepository) RemoveTeamMember(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	result, err := r.DB.SQLx().ExecContext(ctx,
		`DELETE FROM event_team_members WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		logger.Error("AppointmentRepository:RemoveTeamMember", "event_id", eventID, "user_id", userID, "error", err)
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected == 1, err
}
