package service

import (
	"context"
	"fmt"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/repository"
	"github.com/aliskhannn/plannerbot/internal/timeutil"
)

// UserService owns user onboarding and settings mutation, validating every
// field the §4.1 onboarding dialog and the §6 settings endpoint accept.
type UserService struct {
	users *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetOrCreate loads or creates the user for a Telegram chat.
func (s *UserService) GetOrCreate(ctx context.Context, chatID int64) (*entities.User, error) {
	return s.users.GetOrCreate(ctx, chatID)
}

// GetByID loads a user by primary key, used by senders acting on a queued job.
func (s *UserService) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	return s.users.GetByID(ctx, id)
}

// SetTimezone validates and persists an IANA zone name, marking timezone
// onboarding complete.
func (s *UserService) SetTimezone(ctx context.Context, u *entities.User, zone string) error {
	if _, err := timeutil.LoadZone(zone); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}
	u.Timezone = zone
	u.OnboardedTimezone = true
	return s.users.Update(ctx, u)
}

// SetMorningTime validates and persists the daily morning prompt time.
func (s *UserService) SetMorningTime(ctx context.Context, u *entities.User, hhmm string) error {
	tod, err := timeutil.ParseTimeOfDay(hhmm)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}
	u.MorningTime = tod.String()
	u.OnboardedMorning = true
	return s.users.Update(ctx, u)
}

// SetEveningTime validates and persists the daily evening review time.
func (s *UserService) SetEveningTime(ctx context.Context, u *entities.User, hhmm string) error {
	tod, err := timeutil.ParseTimeOfDay(hhmm)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}
	u.EveningTime = tod.String()
	u.OnboardedEvening = true
	return s.users.Update(ctx, u)
}

// SetMorningReminderCadence validates and persists the morning nudge
// interval and attempt cap.
func (s *UserService) SetMorningReminderCadence(ctx context.Context, u *entities.User, intervalMin, maxAttempts int) error {
	if intervalMin < 5 || intervalMin > 720 {
		return fmt.Errorf("%w: reminder interval must be 5..720 minutes", apperr.ErrInvalidInput)
	}
	if maxAttempts < 0 || maxAttempts > 10 {
		return fmt.Errorf("%w: max attempts must be 0..10", apperr.ErrInvalidInput)
	}
	u.MorningReminderIntervalMin = intervalMin
	u.MorningReminderMaxAttempts = maxAttempts
	return s.users.Update(ctx, u)
}

// ListPage pages through every user.
func (s *UserService) ListPage(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	return s.users.ListEnabledPage(ctx, limit, offset)
}
