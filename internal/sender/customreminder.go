package sender

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/queue"
	"github.com/aliskhannn/plannerbot/internal/render"
	"github.com/aliskhannn/plannerbot/internal/service"
)

// CustomReminderSender delivers a claimed custom reminder and advances its
// self-rescheduling cycle, per §4.4/§4.6.
type CustomReminderSender struct {
	reminders *service.CustomReminderService
	gateway   Gateway
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewCustomReminderSender creates a new CustomReminderSender.
func NewCustomReminderSender(reminders *service.CustomReminderService, gateway Gateway, q *queue.Queue, logger *zap.Logger) *CustomReminderSender {
	return &CustomReminderSender{reminders: reminders, gateway: gateway, queue: q, logger: logger}
}

// Run consumes the custom reminder queue with a bounded pool of workers
// until ctx is cancelled.
func (s *CustomReminderSender) Run(ctx context.Context, workers int) {
	runWorkers(ctx, workers, queue.KindCustomReminder, s.queue, s.logger, s.handle)
}

func (s *CustomReminderSender) handle(ctx context.Context, job queue.Job) {
	cr, err := s.reminders.GetSystem(ctx, job.ReminderID)
	if err != nil {
		s.logger.Error("custom reminder sender: load reminder failed", zap.Int64("reminder_id", job.ReminderID), zap.Error(err))
		return
	}

	now := time.Now().UTC()
	err = s.gateway.Send(cr.ChatID, render.CustomReminder(cr.ID, cr.Description))
	if err != nil {
		if apperr.Is(err, apperr.ErrPermanent) {
			if advErr := s.reminders.AdvanceCycle(ctx, cr, now); advErr != nil {
				s.logger.Error("custom reminder sender: advance after permanent failure failed", zap.Int64("reminder_id", cr.ID), zap.Error(advErr))
			}
			return
		}
		if relErr := s.reminders.ReleaseAfterTransientFailure(ctx, cr, now); relErr != nil {
			s.logger.Error("custom reminder sender: release lease failed", zap.Int64("reminder_id", cr.ID), zap.Error(relErr))
		}
		return
	}

	if advErr := s.reminders.AdvanceCycle(ctx, cr, now); advErr != nil {
		s.logger.Error("custom reminder sender: advance cycle failed", zap.Int64("reminder_id", cr.ID), zap.Error(advErr))
	}
}
