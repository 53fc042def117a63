// Package fsm stores per-chat conversation state, keyed by chat id and
// overwritten on every transition, as described in §4.5. Storage is Redis so
// state survives restarts across a multi-worker deployment; a process-local
// map is provided as a fallback for single-worker or offline use, in the
// shape of the teacher's tzInputWait map generalized to every FSM state.
package fsm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// State names every phase of the per-chat dialog.
type State string

const (
	StateIdle                State = "idle"
	StateOnboardingTZ         State = "onboarding_tz"
	StateOnboardingMorning    State = "onboarding_morning"
	StateOnboardingEvening    State = "onboarding_evening"
	StateAwaitingPlan         State = "awaiting_plan"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateAwaitingComment      State = "awaiting_comment"
	StateSettingsInput        State = "settings_input"
)

// Session is the persisted state plus its associated data blob.
type Session struct {
	State State           `json:"state"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Store reads and writes per-chat sessions.
type Store struct {
	rdb *redis.Client

	// fallback is used only when rdb is nil, e.g. in tests.
	mu       sync.RWMutex
	fallback map[int64]Session
}

// New creates a Redis-backed Store.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, fallback: make(map[int64]Session)}
}

func redisKey(chatID int64) string {
	return fmt.Sprintf("fsm:%d", chatID)
}

// Get returns the current session for chatID, defaulting to Idle.
func (s *Store) Get(ctx context.Context, chatID int64) (Session, error) {
	if s.rdb == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		sess, ok := s.fallback[chatID]
		if !ok {
			return Session{State: StateIdle}, nil
		}
		return sess, nil
	}

	raw, err := s.rdb.Get(ctx, redisKey(chatID)).Bytes()
	if err == redis.Nil {
		return Session{State: StateIdle}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("get fsm session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("unmarshal fsm session: %w", err)
	}
	return sess, nil
}

// Set overwrites the session for chatID. No TTL is applied: entries are
// overwritten on each transition, per §4.5.
func (s *Store) Set(ctx context.Context, chatID int64, sess Session) error {
	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.fallback[chatID] = sess
		return nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal fsm session: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(chatID), data, 0).Err(); err != nil {
		return fmt.Errorf("set fsm session: %w", err)
	}
	return nil
}

// Reset returns the session to Idle with no data.
func (s *Store) Reset(ctx context.Context, chatID int64) error {
	return s.Set(ctx, chatID, Session{State: StateIdle})
}

// SetData marshals v into the session's data field while keeping state.
func SetData(sess *Session, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal fsm data: %w", err)
	}
	sess.Data = data
	return nil
}

// DataInto unmarshals the session's data field into v.
func DataInto(sess Session, v any) error {
	if len(sess.Data) == 0 {
		return fmt.Errorf("fsm session has no data")
	}
	return json.Unmarshal(sess.Data, v)
}

// PlanData is the payload carried by StateAwaitingPlan.
type PlanData struct {
	PlanDate string `json:"plan_date"`
}

// ConfirmationData is the payload carried by StateAwaitingConfirmation.
type ConfirmationData struct {
	PlanID   int64  `json:"plan_id"`
	PlanDate string `json:"plan_date"`
	UserID   int64  `json:"user_id"`
}

// CommentData is the payload carried by StateAwaitingComment. PendingOutcome
// is the outcome recorded alongside the comment once it arrives; the comment
// button always sets it to "partial".
type CommentData struct {
	TaskID         int64            `json:"task_id"`
	PendingOutcome string           `json:"pending_outcome"`
	Return         ConfirmationData `json:"return"`
}

// SettingsInputData names which setting is being edited. The settings flow
// has no input for the morning reminder max attempts.
type SettingsInputData struct {
	Field string `json:"field"` // "timezone" | "morning_time" | "evening_time" | "interval"
}
