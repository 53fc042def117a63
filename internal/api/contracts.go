package api

import (
	"context"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/service"
)

// UserService is the subset of internal/service.UserService the HTTP
// surface needs.
type UserService interface {
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	GetOrCreate(ctx context.Context, chatID int64) (*entities.User, error)
	SetTimezone(ctx context.Context, u *entities.User, zone string) error
	SetMorningTime(ctx context.Context, u *entities.User, hhmm string) error
	SetEveningTime(ctx context.Context, u *entities.User, hhmm string) error
	SetMorningReminderCadence(ctx context.Context, u *entities.User, intervalMin, maxAttempts int) error
}

// PlanService is the subset of internal/service.PlanService the HTTP
// surface needs.
type PlanService interface {
	SubmitPlan(ctx context.Context, userID int64, localDate, rawText string) (*entities.Plan, error)
	Today(ctx context.Context, userID int64, localDate string) (*entities.Plan, error)
	RecordTaskStatus(ctx context.Context, callerUserID, taskID int64, outcome entities.TaskOutcome, comment string) error
}

// CustomReminderService is the subset of
// internal/service.CustomReminderService the HTTP surface needs.
type CustomReminderService interface {
	Create(ctx context.Context, u *entities.User, timeOfDay, description string, repeatIntervalMin, maxAttemptsPerDay int) (*entities.CustomReminder, error)
	Get(ctx context.Context, callerUserID, id int64) (*entities.CustomReminder, error)
	List(ctx context.Context, userID int64) ([]*entities.CustomReminder, error)
	Update(ctx context.Context, cr *entities.CustomReminder, timeOfDay, description string, repeatIntervalMin, maxAttemptsPerDay int, enabled bool) error
	Delete(ctx context.Context, callerUserID, id int64) error
}

// StatsService is the subset of internal/service.StatsService the HTTP
// surface needs.
type StatsService interface {
	History(ctx context.Context, userID int64, yearMonth string) ([]service.HistoryEntry, error)
	Overview(ctx context.Context, userID int64, today string) (service.Stats, error)
}

// UpdateHandler is the subset of internal/delivery/telegram.Handler the
// webhook route needs to hand an inbound update to the same router used by
// the long-polling daemon.
type UpdateHandler interface {
	HandleUpdateJSON(body []byte) error
}
