// Package entities holds the plain data types of the planning domain: users,
// plans and their tasks, the notification ledger, and custom reminders.
package entities

import "time"

// User is a bot user, addressed by Telegram chat id, with the notification
// schedule and onboarding state the dispatcher reads every tick.
type User struct {
	ID                         int64
	ChatID                     int64
	Timezone                   string
	MorningTime                string // "HH:MM"
	EveningTime                string // "HH:MM"
	MorningReminderIntervalMin int    // 1..720
	MorningReminderMaxAttempts int    // 0..10
	OnboardedTimezone          bool
	OnboardedMorning           bool
	OnboardedEvening           bool
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// Onboarded reports whether the user has completed all three onboarding steps.
func (u *User) Onboarded() bool {
	return u.OnboardedTimezone && u.OnboardedMorning && u.OnboardedEvening
}

// NewUser returns a user with the documented defaults: morning 07:00,
// evening 21:00, a 60 minute morning reminder interval and a single
// morning reminder attempt.
func NewUser(id, chatID int64) *User {
	now := time.Now().UTC()
	return &User{
		ID:                         id,
		ChatID:                     chatID,
		Timezone:                   "UTC",
		MorningTime:                "07:00",
		EveningTime:                "21:00",
		MorningReminderIntervalMin: 60,
		MorningReminderMaxAttempts: 1,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
}

// Channel identifies which of the two daily prompts a notification or ledger
// record concerns.
type Channel string

const (
	ChannelMorning Channel = "morning"
	ChannelEvening Channel = "evening"
)

// NotificationOutcome is the result recorded in the idempotency ledger.
type NotificationOutcome string

const (
	OutcomeSent    NotificationOutcome = "sent"
	OutcomeFailed  NotificationOutcome = "failed"
	OutcomeRetried NotificationOutcome = "retried"
)

// NotificationRecord is an append-only idempotency ledger row.
type NotificationRecord struct {
	ID         int64
	UserID     int64
	Channel    Channel
	Outcome    NotificationOutcome
	LocalDate  string // YYYY-MM-DD; the ledger table stores it only inside Payload, and the dedup query reads payload->>'date'
	Attempt    int
	Payload    []byte // JSON {"date": "...", "attempt": N}
	CreatedAt  time.Time
}

// Plan is a user's ordered task list for one local calendar date.
type Plan struct {
	ID        int64
	UserID    int64
	LocalDate string // YYYY-MM-DD
	CreatedAt time.Time
	Tasks     []Task
}

// Task is one line of a plan.
type Task struct {
	ID       int64
	PlanID   int64
	Position int
	Text     string
	Status   *TaskStatus
}

// TaskOutcome is the evening-review verdict for a task.
type TaskOutcome string

const (
	TaskDone    TaskOutcome = "done"
	TaskPartial TaskOutcome = "partial"
	TaskFailed  TaskOutcome = "failed"
)

// TaskStatus is the (at most one) evening-review response for a task.
type TaskStatus struct {
	TaskID      int64
	Outcome     TaskOutcome
	Comment     string
	RespondedAt time.Time
}

// StatusIcon renders the icon used by the evening plan summary; an unset
// status renders as an em dash.
func StatusIcon(s *TaskStatus) string {
	if s == nil {
		return "—"
	}
	switch s.Outcome {
	case TaskDone:
		return "✅"
	case TaskPartial:
		return "⚠"
	case TaskFailed:
		return "❌"
	default:
		return "—"
	}
}

// CompletionWeight is the scoring weight used by CompletionPercent.
func CompletionWeight(s *TaskStatus) float64 {
	if s == nil {
		return 0
	}
	switch s.Outcome {
	case TaskDone:
		return 1.0
	case TaskPartial:
		return 0.5
	default:
		return 0
	}
}

// CompletionPercent computes round(100 * sum(weight) / count) for a plan,
// returning 0 for an empty plan.
func CompletionPercent(tasks []Task) int {
	if len(tasks) == 0 {
		return 0
	}
	var sum float64
	for _, t := range tasks {
		sum += CompletionWeight(t.Status)
	}
	pct := 100 * sum / float64(len(tasks))
	return int(pct + 0.5)
}

// AllAnswered reports whether every task in the plan has a recorded status.
func AllAnswered(tasks []Task) bool {
	for _, t := range tasks {
		if t.Status == nil {
			return false
		}
	}
	return true
}

// CustomReminder is a user-defined recurring reminder with its own
// self-rescheduling daily cycle.
type CustomReminder struct {
	ID                   int64
	UserID               int64
	ChatID               int64
	Timezone             string
	TimeOfDay            string // "HH:MM"
	Description          string
	RepeatIntervalMin    int // 1..1440
	MaxAttemptsPerDay    int // 1..50
	CycleLocalDate       string
	AttemptsSentToday    int
	DoneToday            bool
	NextFireAtUTC        *time.Time
	LastSentAtUTC        *time.Time
	LockedUntilUTC       *time.Time
	Enabled              bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
