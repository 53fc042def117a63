package sender

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/fsm"
	"github.com/aliskhannn/plannerbot/internal/queue"
	"github.com/aliskhannn/plannerbot/internal/render"
	"github.com/aliskhannn/plannerbot/internal/repository"
	"github.com/aliskhannn/plannerbot/internal/service"
)

// MorningSender delivers the morning plan prompt and its follow-up
// reminders, exactly as described in §4.4.
type MorningSender struct {
	users   *service.UserService
	plans   *service.PlanService
	ledger  *repository.LedgerRepository
	gateway Gateway
	fsm     *fsm.Store
	delayed *queue.DelayedQueue
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewMorningSender creates a new MorningSender.
func NewMorningSender(users *service.UserService, plans *service.PlanService, ledger *repository.LedgerRepository, gateway Gateway, fsmStore *fsm.Store, delayed *queue.DelayedQueue, q *queue.Queue, logger *zap.Logger) *MorningSender {
	return &MorningSender{users: users, plans: plans, ledger: ledger, gateway: gateway, fsm: fsmStore, delayed: delayed, queue: q, logger: logger}
}

// Run consumes the morning queue with a bounded pool of workers until ctx
// is cancelled.
func (s *MorningSender) Run(ctx context.Context, workers int) {
	runWorkers(ctx, workers, queue.KindMorning, s.queue, s.logger, s.handle)
}

func (s *MorningSender) handle(ctx context.Context, job queue.Job) {
	u, err := s.users.GetByID(ctx, job.UserID)
	if err != nil {
		s.logger.Error("morning sender: load user failed", zap.Int64("user_id", job.UserID), zap.Error(err))
		return
	}

	if job.Stage == queue.StageReminder {
		s.handleReminder(ctx, u, job)
		return
	}
	s.handleInitial(ctx, u, job)
}

func (s *MorningSender) handleInitial(ctx context.Context, u *entities.User, job queue.Job) {
	err := s.gateway.Send(u.ChatID, render.MorningPrompt())

	switch {
	case err == nil:
		if recErr := s.ledger.RecordSent(ctx, u.ID, entities.ChannelMorning, job.LocalDate, job.Attempt); recErr != nil {
			s.logger.Error("morning sender: record sent failed", zap.Int64("user_id", u.ID), zap.Error(recErr))
		}
		sess := fsm.Session{State: fsm.StateAwaitingPlan}
		_ = fsm.SetData(&sess, fsm.PlanData{PlanDate: job.LocalDate})
		if setErr := s.fsm.Set(ctx, u.ChatID, sess); setErr != nil {
			s.logger.Error("morning sender: fsm transition failed", zap.Int64("user_id", u.ID), zap.Error(setErr))
		}
		if u.MorningReminderMaxAttempts >= 1 {
			at := time.Now().UTC().Add(time.Duration(u.MorningReminderIntervalMin) * time.Minute)
			reminderJob := queue.Job{Kind: queue.KindMorning, UserID: u.ID, LocalDate: job.LocalDate, Stage: queue.StageReminder, ReminderAttempt: 1}
			if schErr := s.delayed.ScheduleAt(ctx, reminderJob, at); schErr != nil {
				s.logger.Error("morning sender: schedule reminder failed", zap.Int64("user_id", u.ID), zap.Error(schErr))
			}
		}

	case apperr.Is(err, apperr.ErrPermanent):
		_ = s.ledger.RecordFailed(ctx, u.ID, entities.ChannelMorning, job.LocalDate, job.Attempt)
		_ = s.gateway.Send(u.ChatID, render.GenericError())

	default: // transient
		_ = s.ledger.RecordRetried(ctx, u.ID, entities.ChannelMorning, job.LocalDate, job.Attempt)
		if job.Attempt < maxRetries {
			at := time.Now().UTC().Add(backoffAfter(job.Attempt))
			retryJob := queue.Job{Kind: queue.KindMorning, UserID: u.ID, LocalDate: job.LocalDate, Stage: queue.StageInitial, Attempt: job.Attempt + 1}
			if schErr := s.delayed.ScheduleAt(ctx, retryJob, at); schErr != nil {
				s.logger.Error("morning sender: schedule retry failed", zap.Int64("user_id", u.ID), zap.Error(schErr))
			}
			return
		}
		_ = s.ledger.RecordFailed(ctx, u.ID, entities.ChannelMorning, job.LocalDate, job.Attempt)
		_ = s.gateway.Send(u.ChatID, render.GenericError())
	}
}

func (s *MorningSender) handleReminder(ctx context.Context, u *entities.User, job queue.Job) {
	hasPlan, err := s.plans.HasPlan(ctx, u.ID, job.LocalDate)
	if err != nil {
		s.logger.Error("morning sender: check plan exists failed", zap.Int64("user_id", u.ID), zap.Error(err))
		return
	}
	if hasPlan {
		return
	}
	if job.ReminderAttempt > u.MorningReminderMaxAttempts {
		return
	}

	err = s.gateway.Send(u.ChatID, render.MorningReminder(job.ReminderAttempt))
	if err != nil {
		// Best-effort: a failed reminder is not retried, and no further
		// reminder is scheduled for this date.
		s.logger.Warn("morning sender: reminder send failed", zap.Int64("user_id", u.ID), zap.Error(err))
		return
	}

	if recErr := s.ledger.RecordSent(ctx, u.ID, entities.ChannelMorning, job.LocalDate, job.ReminderAttempt); recErr != nil {
		s.logger.Error("morning sender: record sent failed", zap.Int64("user_id", u.ID), zap.Error(recErr))
	}
	sess := fsm.Session{State: fsm.StateAwaitingPlan}
	_ = fsm.SetData(&sess, fsm.PlanData{PlanDate: job.LocalDate})
	_ = s.fsm.Set(ctx, u.ChatID, sess)

	if job.ReminderAttempt < u.MorningReminderMaxAttempts {
		at := time.Now().UTC().Add(time.Duration(u.MorningReminderIntervalMin) * time.Minute)
		nextJob := queue.Job{Kind: queue.KindMorning, UserID: u.ID, LocalDate: job.LocalDate, Stage: queue.StageReminder, ReminderAttempt: job.ReminderAttempt + 1}
		if schErr := s.delayed.ScheduleAt(ctx, nextJob, at); schErr != nil {
			s.logger.Error("morning sender: schedule next reminder failed", zap.Int64("user_id", u.ID), zap.Error(schErr))
		}
	}
}
