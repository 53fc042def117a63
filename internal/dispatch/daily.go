// Package dispatch implements the two minute-granularity cron loops that
// decide when to enqueue a send: the daily tick dispatcher for the morning
// and evening channels, and the custom-reminder dispatcher.
package dispatch

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/queue"
	"github.com/aliskhannn/plannerbot/internal/repository"
	"github.com/aliskhannn/plannerbot/internal/timeutil"
)

const usersPageSize = 200

// DailyDispatcher runs the morning/evening in-window check every minute and
// enqueues send jobs; it never performs transport I/O itself.
type DailyDispatcher struct {
	users   *repository.UserRepository
	ledger  *repository.LedgerRepository
	queue   *queue.Queue
	delayed *queue.DelayedQueue
	window  time.Duration
	logger  *zap.Logger
}

// NewDailyDispatcher creates a new DailyDispatcher.
func NewDailyDispatcher(users *repository.UserRepository, ledger *repository.LedgerRepository, q *queue.Queue, delayed *queue.DelayedQueue, window time.Duration, logger *zap.Logger) *DailyDispatcher {
	return &DailyDispatcher{users: users, ledger: ledger, queue: q, delayed: delayed, window: window, logger: logger}
}

// Start registers the every-minute cron job and blocks until ctx is done.
func (d *DailyDispatcher) Start(ctx context.Context) {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc("* * * * *", func() {
		if err := d.Tick(ctx); err != nil {
			d.logger.Error("daily tick failed", zap.Error(err))
		}
	})
	if err != nil {
		d.logger.Error("failed to register daily dispatcher cron job", zap.Error(err))
		return
	}

	c.Start()
	d.logger.Info("daily dispatcher started")

	<-ctx.Done()
	c.Stop()
	d.logger.Info("daily dispatcher stopped")
}

// Tick runs a single pass over every enabled user.
func (d *DailyDispatcher) Tick(ctx context.Context) error {
	now := time.Now().UTC()

	if err := d.delayed.DrainDue(ctx, d.queue, now); err != nil {
		d.logger.Error("failed to drain delayed queue", zap.Error(err))
	}

	offset := 0

	for {
		users, err := d.users.ListEnabledPage(ctx, usersPageSize, offset)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return nil
		}

		for _, u := range users {
			d.tickUser(ctx, u, now)
		}

		if len(users) < usersPageSize {
			return nil
		}
		offset += usersPageSize
	}
}

func (d *DailyDispatcher) tickUser(ctx context.Context, u *entities.User, now time.Time) {
	zone, err := timeutil.LoadZone(u.Timezone)
	if err != nil {
		d.logger.Warn("skipping user with unresolvable zone",
			zap.Int64("user_id", u.ID), zap.String("timezone", u.Timezone), zap.Error(err))
		return
	}

	_, local, today := timeutil.NowInZone(zone, now)
	nowMinutes := local.Hour()*60 + local.Minute()

	if u.OnboardedMorning {
		d.checkChannel(ctx, u, entities.ChannelMorning, u.MorningTime, nowMinutes, today)
	}
	if u.OnboardedEvening {
		d.checkChannel(ctx, u, entities.ChannelEvening, u.EveningTime, nowMinutes, today)
	}
}

func (d *DailyDispatcher) checkChannel(ctx context.Context, u *entities.User, channel entities.Channel, hhmm string, nowMinutes int, today timeutil.LocalDate) {
	tod, err := timeutil.ParseTimeOfDay(hhmm)
	if err != nil {
		d.logger.Warn("skipping channel with unparseable time of day",
			zap.Int64("user_id", u.ID), zap.String("channel", string(channel)), zap.Error(err))
		return
	}

	delta := ((nowMinutes - tod.MinutesOfDay()) % 1440 + 1440) % 1440
	windowMinutes := int(d.window / time.Minute)
	if delta < 0 || delta >= windowMinutes {
		return
	}

	sent, err := d.ledger.HasSent(ctx, u.ID, channel, today.String())
	if err != nil {
		d.logger.Error("failed to check delivery ledger",
			zap.Int64("user_id", u.ID), zap.String("channel", string(channel)), zap.Error(err))
		return
	}
	if sent {
		return
	}

	var enqueueErr error
	switch channel {
	case entities.ChannelMorning:
		enqueueErr = d.queue.EnqueueMorning(ctx, u.ID, today.String(), queue.StageInitial, 0, 0)
	case entities.ChannelEvening:
		enqueueErr = d.queue.EnqueueEvening(ctx, u.ID, today.String(), queue.StageInitial, 0, 0)
	}
	if enqueueErr != nil {
		d.logger.Error("failed to enqueue send job",
			zap.Int64("user_id", u.ID), zap.String("channel", string(channel)), zap.Error(enqueueErr))
	}
}
