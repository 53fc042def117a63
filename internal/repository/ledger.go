package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
)

// LedgerRepository provides access to the append-only notification ledger
// that serves as the dedup guard for daily prompts.
type LedgerRepository struct {
	db *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

type recordPayload struct {
	Date    string `json:"date"`
	Attempt int    `json:"attempt"`
}

// HasSent reports whether a `sent` record already exists for
// (user, channel, localDate) — the dispatcher's dedup check.
func (r *LedgerRepository) HasSent(ctx context.Context, userID int64, channel entities.Channel, localDate string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM notification_records
			WHERE user_id = $1 AND channel = $2 AND outcome = 'sent'
			  AND payload->>'date' = $3
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, channel, localDate).Scan(&exists); err != nil {
		return false, fmt.Errorf("check sent ledger: %w", err)
	}
	return exists, nil
}

func (r *LedgerRepository) insert(ctx context.Context, userID int64, channel entities.Channel, outcome entities.NotificationOutcome, localDate string, attempt int) error {
	payload, err := json.Marshal(recordPayload{Date: localDate, Attempt: attempt})
	if err != nil {
		return fmt.Errorf("marshal ledger payload: %w", err)
	}

	const query = `
		INSERT INTO notification_records (user_id, channel, outcome, payload, created_at)
		VALUES ($1, $2, $3, $4, now())
	`
	if _, err := r.db.Exec(ctx, query, userID, channel, outcome, payload); err != nil {
		return fmt.Errorf("insert ledger record: %w", err)
	}
	return nil
}

// RecordSent writes a `sent` record. Must only be called after the
// transport call has actually succeeded.
func (r *LedgerRepository) RecordSent(ctx context.Context, userID int64, channel entities.Channel, localDate string, attempt int) error {
	return r.insert(ctx, userID, channel, entities.OutcomeSent, localDate, attempt)
}

// RecordFailed writes a `failed` record on permanent failure or retry exhaustion.
func (r *LedgerRepository) RecordFailed(ctx context.Context, userID int64, channel entities.Channel, localDate string, attempt int) error {
	return r.insert(ctx, userID, channel, entities.OutcomeFailed, localDate, attempt)
}

// RecordRetried writes a `retried` record for each transient failure that will be retried.
func (r *LedgerRepository) RecordRetried(ctx context.Context, userID int64, channel entities.Channel, localDate string, attempt int) error {
	return r.insert(ctx, userID, channel, entities.OutcomeRetried, localDate, attempt)
}

// ResetSent deletes `sent` rows for (user, channel, date) so the next tick,
// or an explicit user retry command, may fire again. This is the only
// supported way to force re-delivery for the same local day.
func (r *LedgerRepository) ResetSent(ctx context.Context, userID int64, channel entities.Channel, localDate string) error {
	const query = `
		DELETE FROM notification_records
		WHERE user_id = $1 AND channel = $2 AND outcome = 'sent' AND payload->>'date' = $3
	`
	if _, err := r.db.Exec(ctx, query, userID, channel, localDate); err != nil {
		return fmt.Errorf("reset sent ledger: %w", err)
	}
	return nil
}
