package dispatch

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/queue"
	"github.com/aliskhannn/plannerbot/internal/service"
)

const claimBatchSize = 100

// CustomReminderDispatcher claims due custom reminders and enqueues them for
// the custom reminder sender, using the repository's row-level lease to
// survive concurrent dispatcher instances.
type CustomReminderDispatcher struct {
	reminders *service.CustomReminderService
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewCustomReminderDispatcher creates a new CustomReminderDispatcher.
func NewCustomReminderDispatcher(reminders *service.CustomReminderService, q *queue.Queue, logger *zap.Logger) *CustomReminderDispatcher {
	return &CustomReminderDispatcher{reminders: reminders, queue: q, logger: logger}
}

// Start registers the every-minute cron job and blocks until ctx is done.
func (d *CustomReminderDispatcher) Start(ctx context.Context) {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc("* * * * *", func() {
		if err := d.Tick(ctx); err != nil {
			d.logger.Error("custom reminder tick failed", zap.Error(err))
		}
	})
	if err != nil {
		d.logger.Error("failed to register custom reminder dispatcher cron job", zap.Error(err))
		return
	}

	c.Start()
	d.logger.Info("custom reminder dispatcher started")

	<-ctx.Done()
	c.Stop()
	d.logger.Info("custom reminder dispatcher stopped")
}

// Tick claims every due reminder and hands each off to the queue.
func (d *CustomReminderDispatcher) Tick(ctx context.Context) error {
	now := time.Now().UTC()

	claimed, err := d.reminders.ClaimDue(ctx, now, claimBatchSize)
	if err != nil {
		return err
	}

	for _, cr := range claimed {
		if err := d.queue.EnqueueCustomReminder(ctx, cr.ID); err != nil {
			d.logger.Error("failed to enqueue custom reminder",
				zap.Int64("reminder_id", cr.ID), zap.Error(err))
		}
	}
	return nil
}
