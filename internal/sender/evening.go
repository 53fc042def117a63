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

// EveningSender delivers the evening plan review and its two follow-up
// reminders, per §4.4.
type EveningSender struct {
	users   *service.UserService
	plans   *service.PlanService
	ledger  *repository.LedgerRepository
	gateway Gateway
	fsm     *fsm.Store
	delayed *queue.DelayedQueue
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewEveningSender creates a new EveningSender.
func NewEveningSender(users *service.UserService, plans *service.PlanService, ledger *repository.LedgerRepository, gateway Gateway, fsmStore *fsm.Store, delayed *queue.DelayedQueue, q *queue.Queue, logger *zap.Logger) *EveningSender {
	return &EveningSender{users: users, plans: plans, ledger: ledger, gateway: gateway, fsm: fsmStore, delayed: delayed, queue: q, logger: logger}
}

// Run consumes the evening queue with a bounded pool of workers until ctx
// is cancelled.
func (s *EveningSender) Run(ctx context.Context, workers int) {
	runWorkers(ctx, workers, queue.KindEvening, s.queue, s.logger, s.handle)
}

func (s *EveningSender) handle(ctx context.Context, job queue.Job) {
	u, err := s.users.GetByID(ctx, job.UserID)
	if err != nil {
		s.logger.Error("evening sender: load user failed", zap.Int64("user_id", job.UserID), zap.Error(err))
		return
	}

	if job.Stage == queue.StageReminder {
		s.handleReminder(ctx, u, job)
		return
	}
	s.handleInitial(ctx, u, job)
}

func (s *EveningSender) handleInitial(ctx context.Context, u *entities.User, job queue.Job) {
	plan, err := s.plans.Today(ctx, u.ID, job.LocalDate)
	if err != nil {
		s.logger.Error("evening sender: load plan failed", zap.Int64("user_id", u.ID), zap.Error(err))
		return
	}
	if plan == nil || len(plan.Tasks) == 0 {
		if sendErr := s.gateway.Send(u.ChatID, render.EveningNoPlan()); sendErr != nil {
			s.logger.Warn("evening sender: no-plan notice failed", zap.Int64("user_id", u.ID), zap.Error(sendErr))
		}
		return
	}

	sess := fsm.Session{State: fsm.StateAwaitingConfirmation}
	_ = fsm.SetData(&sess, fsm.ConfirmationData{PlanID: plan.ID, PlanDate: job.LocalDate, UserID: u.ID})
	if setErr := s.fsm.Set(ctx, u.ChatID, sess); setErr != nil {
		s.logger.Error("evening sender: fsm transition failed", zap.Int64("user_id", u.ID), zap.Error(setErr))
	}

	err = s.gateway.Send(u.ChatID, render.EveningReview(plan.ID, plan.Tasks))

	switch {
	case err == nil:
		if recErr := s.ledger.RecordSent(ctx, u.ID, entities.ChannelEvening, job.LocalDate, job.Attempt); recErr != nil {
			s.logger.Error("evening sender: record sent failed", zap.Int64("user_id", u.ID), zap.Error(recErr))
		}
		now := time.Now().UTC()
		s.scheduleReminder(ctx, u, job.LocalDate, now.Add(1*time.Hour))
		s.scheduleReminder(ctx, u, job.LocalDate, now.Add(3*time.Hour))

	case apperr.Is(err, apperr.ErrPermanent):
		_ = s.ledger.RecordFailed(ctx, u.ID, entities.ChannelEvening, job.LocalDate, job.Attempt)
		_ = s.gateway.Send(u.ChatID, render.GenericError())

	default: // transient
		_ = s.ledger.RecordRetried(ctx, u.ID, entities.ChannelEvening, job.LocalDate, job.Attempt)
		if job.Attempt < maxRetries {
			at := time.Now().UTC().Add(backoffAfter(job.Attempt))
			retryJob := queue.Job{Kind: queue.KindEvening, UserID: u.ID, LocalDate: job.LocalDate, Stage: queue.StageInitial, Attempt: job.Attempt + 1}
			if schErr := s.delayed.ScheduleAt(ctx, retryJob, at); schErr != nil {
				s.logger.Error("evening sender: schedule retry failed", zap.Int64("user_id", u.ID), zap.Error(schErr))
			}
			return
		}
		_ = s.ledger.RecordFailed(ctx, u.ID, entities.ChannelEvening, job.LocalDate, job.Attempt)
		_ = s.gateway.Send(u.ChatID, render.GenericError())
	}
}

func (s *EveningSender) scheduleReminder(ctx context.Context, u *entities.User, localDate string, at time.Time) {
	job := queue.Job{Kind: queue.KindEvening, UserID: u.ID, LocalDate: localDate, Stage: queue.StageReminder}
	if err := s.delayed.ScheduleAt(ctx, job, at); err != nil {
		s.logger.Error("evening sender: schedule reminder failed", zap.Int64("user_id", u.ID), zap.Error(err))
	}
}

func (s *EveningSender) handleReminder(ctx context.Context, u *entities.User, job queue.Job) {
	plan, err := s.plans.Today(ctx, u.ID, job.LocalDate)
	if err != nil {
		s.logger.Error("evening sender: load plan failed", zap.Int64("user_id", u.ID), zap.Error(err))
		return
	}
	if plan == nil || len(plan.Tasks) == 0 {
		return
	}
	if entities.AllAnswered(plan.Tasks) {
		return
	}

	if err := s.gateway.Send(u.ChatID, render.EveningReminder()); err != nil {
		s.logger.Warn("evening sender: reminder send failed", zap.Int64("user_id", u.ID), zap.Error(err))
	}
}
