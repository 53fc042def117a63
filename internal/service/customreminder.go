package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/repository"
	"github.com/aliskhannn/plannerbot/internal/timeutil"
)

// CustomReminderService owns custom-reminder CRUD and the cycle lifecycle:
// enable/disable, mark-done-today, and the next-fire computation the
// dispatcher and sender rely on.
type CustomReminderService struct {
	reminders *repository.CustomReminderRepository
}

// NewCustomReminderService creates a new CustomReminderService.
func NewCustomReminderService(reminders *repository.CustomReminderRepository) *CustomReminderService {
	return &CustomReminderService{reminders: reminders}
}

// Create validates and persists a new custom reminder, computing its first
// next_fire_at_utc from the user's zone and the requested time of day.
func (s *CustomReminderService) Create(ctx context.Context, u *entities.User, timeOfDay, description string, repeatIntervalMin, maxAttemptsPerDay int) (*entities.CustomReminder, error) {
	tod, err := timeutil.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description must not be empty", apperr.ErrInvalidInput)
	}
	if repeatIntervalMin < 1 || repeatIntervalMin > 1440 {
		return nil, fmt.Errorf("%w: repeat interval must be 1..1440 minutes", apperr.ErrInvalidInput)
	}
	if maxAttemptsPerDay < 1 || maxAttemptsPerDay > 50 {
		return nil, fmt.Errorf("%w: max attempts per day must be 1..50", apperr.ErrInvalidInput)
	}

	zone, err := timeutil.LoadZone(u.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrZoneUnresolvable, err)
	}

	now := time.Now().UTC()
	nextFire := timeutil.NextLocalTimeAfter(zone, tod, now.Add(-24*time.Hour))
	cycleDate := timeutil.LocalDateInZone(zone, nextFire)

	cr := &entities.CustomReminder{
		UserID:            u.ID,
		TimeOfDay:         tod.String(),
		Description:       description,
		RepeatIntervalMin: repeatIntervalMin,
		MaxAttemptsPerDay: maxAttemptsPerDay,
		CycleLocalDate:    cycleDate.String(),
		NextFireAtUTC:     &nextFire,
		Enabled:           true,
	}
	if err := s.reminders.Insert(ctx, cr); err != nil {
		return nil, err
	}
	return cr, nil
}

// GetSystem loads a single reminder without an ownership check, used by the
// custom-reminder sender acting on a claimed queue job.
func (s *CustomReminderService) GetSystem(ctx context.Context, id int64) (*entities.CustomReminder, error) {
	return s.reminders.GetByID(ctx, id)
}

// Get loads a single reminder, enforcing ownership.
func (s *CustomReminderService) Get(ctx context.Context, callerUserID, id int64) (*entities.CustomReminder, error) {
	cr, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cr.UserID != callerUserID {
		return nil, apperr.ErrNotFound
	}
	return cr, nil
}

// List lists every reminder owned by a user.
func (s *CustomReminderService) List(ctx context.Context, userID int64) ([]*entities.CustomReminder, error) {
	return s.reminders.ListByUser(ctx, userID)
}

// Update validates and persists edits to an existing reminder's schedule
// and description. Re-enabling a previously disabled reminder gives it a
// fresh schedule (next_fire_at_utc/cycle_local_date recomputed,
// attempts_sent_today and done_today reset), mirroring the original's
// toggle_custom_reminder; otherwise the cycle counters are left untouched.
func (s *CustomReminderService) Update(ctx context.Context, cr *entities.CustomReminder, timeOfDay, description string, repeatIntervalMin, maxAttemptsPerDay int, enabled bool) error {
	wasEnabled := cr.Enabled

	tod, err := timeutil.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}
	if description == "" {
		return fmt.Errorf("%w: description must not be empty", apperr.ErrInvalidInput)
	}
	if repeatIntervalMin < 1 || repeatIntervalMin > 1440 {
		return fmt.Errorf("%w: repeat interval must be 1..1440 minutes", apperr.ErrInvalidInput)
	}
	if maxAttemptsPerDay < 1 || maxAttemptsPerDay > 50 {
		return fmt.Errorf("%w: max attempts per day must be 1..50", apperr.ErrInvalidInput)
	}

	cr.TimeOfDay = tod.String()
	cr.Description = description
	cr.RepeatIntervalMin = repeatIntervalMin
	cr.MaxAttemptsPerDay = maxAttemptsPerDay
	cr.Enabled = enabled
	if err := s.reminders.Update(ctx, cr); err != nil {
		return err
	}

	if !wasEnabled && enabled {
		zone, err := timeutil.LoadZone(cr.Timezone)
		if err != nil {
			return fmt.Errorf("%w: %s", apperr.ErrZoneUnresolvable, err)
		}
		now := time.Now().UTC()
		nextFire := timeutil.NextLocalTimeAfter(zone, tod, now)
		cycleDate := timeutil.LocalDateInZone(zone, nextFire).String()
		if err := s.reminders.Reschedule(ctx, cr.ID, nextFire, cycleDate); err != nil {
			return err
		}
		cr.NextFireAtUTC = &nextFire
		cr.CycleLocalDate = cycleDate
		cr.AttemptsSentToday = 0
		cr.DoneToday = false
	}

	return nil
}

// Delete removes a reminder, enforcing ownership.
func (s *CustomReminderService) Delete(ctx context.Context, callerUserID, id int64) error {
	cr, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cr.UserID != callerUserID {
		return apperr.ErrNotFound
	}
	return s.reminders.Delete(ctx, id)
}

// MarkDoneToday ends the reminder's current cycle early, enforcing ownership.
func (s *CustomReminderService) MarkDoneToday(ctx context.Context, callerUserID, id int64) error {
	cr, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cr.UserID != callerUserID {
		return apperr.ErrNotFound
	}

	zone, err := timeutil.LoadZone(cr.Timezone)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrZoneUnresolvable, err)
	}
	tod, err := timeutil.ParseTimeOfDay(cr.TimeOfDay)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	nextFire := timeutil.NextLocalTimeAfter(zone, tod, now)
	cycleDate := timeutil.LocalDateInZone(zone, nextFire).String()
	return s.reminders.MarkDoneToday(ctx, id, nextFire, cycleDate)
}

// ClaimDue delegates to the repository's atomic lease claim, used by the
// custom-reminder dispatcher.
func (s *CustomReminderService) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*entities.CustomReminder, error) {
	return s.reminders.ClaimDue(ctx, now, limit)
}

// AdvanceCycle computes and persists the post-send state for a reminder per
// §4.4/§4.6: if the day's attempt budget is spent or the user marked it done,
// the cycle rolls over to tomorrow's first fire; otherwise the same cycle
// continues repeatIntervalMin later.
func (s *CustomReminderService) AdvanceCycle(ctx context.Context, cr *entities.CustomReminder, sentAt time.Time) error {
	zone, err := timeutil.LoadZone(cr.Timezone)
	if err != nil {
		return s.reminders.ReleaseLeaseUnchanged(ctx, cr.ID)
	}

	attempts := cr.AttemptsSentToday + 1
	exhausted := cr.DoneToday || attempts >= cr.MaxAttemptsPerDay

	tod, err := timeutil.ParseTimeOfDay(cr.TimeOfDay)
	if err != nil {
		return s.reminders.ReleaseLeaseUnchanged(ctx, cr.ID)
	}

	var nextFire time.Time
	var cycleDate string
	var nextAttempts int
	var doneToday bool

	if exhausted {
		nextFire = timeutil.NextLocalTimeAfter(zone, tod, sentAt)
		cycleDate = timeutil.LocalDateInZone(zone, nextFire).String()
		nextAttempts = 0
		doneToday = false
	} else {
		nextFire = sentAt.Add(time.Duration(cr.RepeatIntervalMin) * time.Minute)
		cycleDate = cr.CycleLocalDate
		nextAttempts = attempts
		doneToday = false
	}

	return s.reminders.AdvanceAfterSend(ctx, cr.ID, nextFire, cycleDate, nextAttempts, doneToday, sentAt)
}

// ReleaseAfterTransientFailure re-arms the reminder repeat_interval_minutes later
// without consuming an attempt, after a transient delivery failure.
func (s *CustomReminderService) ReleaseAfterTransientFailure(ctx context.Context, cr *entities.CustomReminder, now time.Time) error {
	retryAt := now.Add(time.Duration(cr.RepeatIntervalMin) * time.Minute)
	return s.reminders.ReleaseLease(ctx, cr.ID, retryAt)
}
