package telegram

import (
	"context"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
)

// UserService is the subset of internal/service.UserService the router needs.
type UserService interface {
	GetOrCreate(ctx context.Context, chatID int64) (*entities.User, error)
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	SetTimezone(ctx context.Context, u *entities.User, zone string) error
	SetMorningTime(ctx context.Context, u *entities.User, hhmm string) error
	SetEveningTime(ctx context.Context, u *entities.User, hhmm string) error
	SetMorningReminderCadence(ctx context.Context, u *entities.User, intervalMin, maxAttempts int) error
}

// PlanService is the subset of internal/service.PlanService the router needs.
type PlanService interface {
	SubmitPlan(ctx context.Context, userID int64, localDate, rawText string) (*entities.Plan, error)
	Today(ctx context.Context, userID int64, localDate string) (*entities.Plan, error)
	RecordTaskStatus(ctx context.Context, callerUserID, taskID int64, outcome entities.TaskOutcome, comment string) error
}

// CustomReminderService is the subset of
// internal/service.CustomReminderService the router needs.
type CustomReminderService interface {
	Create(ctx context.Context, u *entities.User, timeOfDay, description string, repeatIntervalMin, maxAttemptsPerDay int) (*entities.CustomReminder, error)
	List(ctx context.Context, userID int64) ([]*entities.CustomReminder, error)
	Delete(ctx context.Context, callerUserID, id int64) error
	MarkDoneToday(ctx context.Context, callerUserID, id int64) error
}

// Ledger is the subset of internal/repository.LedgerRepository the router
// needs for user-initiated retry commands.
type Ledger interface {
	ResetSent(ctx context.Context, userID int64, channel entities.Channel, localDate string) error
}
