// Package queue implements the job hand-off between the ticker and the
// per-channel sender tasks, backed by Redis lists.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Kind names a queue / job type.
type Kind string

const (
	KindMorning        Kind = "morning"
	KindEvening        Kind = "evening"
	KindCustomReminder Kind = "custom_reminder"
)

func key(kind Kind) string {
	return fmt.Sprintf("queue:%s", kind)
}

// Stage distinguishes the initial prompt send from its scheduled reminder
// follow-ups within the same channel, since both travel on the same queue.
type Stage string

const (
	StageInitial  Stage = "initial"
	StageReminder Stage = "reminder"
)

// Job is the envelope pushed onto a queue.
type Job struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"kind"`
	UserID          int64     `json:"user_id"`
	LocalDate       string    `json:"local_date,omitempty"` // morning/evening jobs
	Stage           Stage     `json:"stage,omitempty"`
	Attempt         int       `json:"attempt"`          // backoff retry count for this job's own send
	ReminderAttempt int       `json:"reminder_attempt,omitempty"` // which scheduled reminder this is
	ReminderID      int64     `json:"reminder_id,omitempty"`      // custom reminder jobs
	NotBefore       time.Time `json:"not_before,omitempty"`
}

// Queue pushes and pops job envelopes.
type Queue struct {
	rdb *redis.Client
}

// New creates a Queue backed by an existing Redis client.
func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// EnqueueMorning enqueues a morning-prompt/reminder send job.
func (q *Queue) EnqueueMorning(ctx context.Context, userID int64, localDate string, stage Stage, attempt, reminderAttempt int) error {
	return q.push(ctx, Job{ID: uuid.NewString(), Kind: KindMorning, UserID: userID, LocalDate: localDate, Stage: stage, Attempt: attempt, ReminderAttempt: reminderAttempt})
}

// EnqueueEvening enqueues an evening-prompt/reminder send job.
func (q *Queue) EnqueueEvening(ctx context.Context, userID int64, localDate string, stage Stage, attempt, reminderAttempt int) error {
	return q.push(ctx, Job{ID: uuid.NewString(), Kind: KindEvening, UserID: userID, LocalDate: localDate, Stage: stage, Attempt: attempt, ReminderAttempt: reminderAttempt})
}

// EnqueueCustomReminder enqueues a claimed custom reminder for sending.
func (q *Queue) EnqueueCustomReminder(ctx context.Context, reminderID int64) error {
	return q.push(ctx, Job{ID: uuid.NewString(), Kind: KindCustomReminder, ReminderID: reminderID})
}

func (q *Queue) push(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, key(job.Kind), data).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Pop blocks (up to timeout) waiting for a job of the given kind.
// A zero job and false are returned on timeout, never an error, so callers
// can loop forever against ctx.Done().
func (q *Queue) Pop(ctx context.Context, kind Kind, timeout time.Duration) (Job, bool, error) {
	res, err := q.rdb.BRPop(ctx, timeout, key(kind)).Result()
	if err == redis.Nil {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, fmt.Errorf("dequeue job: %w", err)
	}
	// res[0] is the key name, res[1] is the payload.
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return Job{}, false, fmt.Errorf("unmarshal job: %w", err)
	}
	return job, true, nil
}

// DelayedQueue is a Redis sorted-set delay buffer, used by the morning and
// evening senders to schedule a follow-up reminder or retry at a future
// instant rather than immediately.
type DelayedQueue struct {
	rdb *redis.Client
}

// NewDelayed creates a DelayedQueue backed by an existing Redis client.
func NewDelayed(rdb *redis.Client) *DelayedQueue {
	return &DelayedQueue{rdb: rdb}
}

const delayedSetKey = "queue:delayed"

// ScheduleAt enqueues job to fire no earlier than at.
func (d *DelayedQueue) ScheduleAt(ctx context.Context, job Job, at time.Time) error {
	job.NotBefore = at
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal delayed job: %w", err)
	}
	if err := d.rdb.ZAdd(ctx, delayedSetKey, redis.Z{Score: float64(at.Unix()), Member: data}).Err(); err != nil {
		return fmt.Errorf("schedule delayed job: %w", err)
	}
	return nil
}

// DrainDue moves every delayed job whose time has come onto its live queue.
// Intended to be called once per tick by the dispatcher loop.
func (d *DelayedQueue) DrainDue(ctx context.Context, q *Queue, now time.Time) error {
	due, err := d.rdb.ZRangeByScore(ctx, delayedSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return fmt.Errorf("scan delayed jobs: %w", err)
	}

	for _, raw := range due {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		if err := q.push(ctx, job); err != nil {
			return err
		}
		if err := d.rdb.ZRem(ctx, delayedSetKey, raw).Err(); err != nil {
			return fmt.Errorf("remove delayed job: %w", err)
		}
	}
	return nil
}
