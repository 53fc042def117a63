package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/infra/postgres"
)

// CustomReminderRepository provides typed access to custom reminders,
// including the row-level lease claim described in §4.6 and §5.
type CustomReminderRepository struct {
	db  *pgxpool.Pool
	txr *postgres.Transactor
}

// NewCustomReminderRepository creates a new CustomReminderRepository.
func NewCustomReminderRepository(db *pgxpool.Pool, txr *postgres.Transactor) *CustomReminderRepository {
	return &CustomReminderRepository{db: db, txr: txr}
}

const leaseDuration = 2 * time.Minute

// ClaimDue selects every enabled reminder whose next_fire_at_utc has
// arrived and whose lease is free or expired, and atomically grants each a
// fresh lease. It is the single transaction described in §4.6: select,
// then UPDATE locked_until_utc, all before commit, so two concurrent
// dispatcher runs never both claim the same row.
func (r *CustomReminderRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*entities.CustomReminder, error) {
	var claimed []*entities.CustomReminder

	err := r.txr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		const selectQuery = `
			SELECT cr.id, cr.user_id, u.chat_id, COALESCE(u.timezone, 'UTC'),
			       cr.time_of_day, cr.description, cr.repeat_interval_minutes,
			       cr.max_attempts_per_day, cr.cycle_local_date, cr.attempts_sent_today,
			       cr.done_today, cr.next_fire_at_utc, cr.last_sent_at_utc,
			       cr.locked_until_utc, cr.enabled, cr.created_at, cr.updated_at
			FROM custom_reminders cr
			JOIN users u ON u.id = cr.user_id
			WHERE cr.enabled = true
			  AND cr.done_today = false
			  AND cr.next_fire_at_utc <= $1
			  AND (cr.locked_until_utc IS NULL OR cr.locked_until_utc <= $1)
			ORDER BY cr.next_fire_at_utc
			LIMIT $2
			FOR UPDATE OF cr
		`
		rows, err := tx.Query(ctx, selectQuery, now, limit)
		if err != nil {
			return fmt.Errorf("select due reminders: %w", err)
		}

		var rows_ []*entities.CustomReminder
		for rows.Next() {
			var cr entities.CustomReminder
			if err := rows.Scan(
				&cr.ID, &cr.UserID, &cr.ChatID, &cr.Timezone,
				&cr.TimeOfDay, &cr.Description, &cr.RepeatIntervalMin,
				&cr.MaxAttemptsPerDay, &cr.CycleLocalDate, &cr.AttemptsSentToday,
				&cr.DoneToday, &cr.NextFireAtUTC, &cr.LastSentAtUTC,
				&cr.LockedUntilUTC, &cr.Enabled, &cr.CreatedAt, &cr.UpdatedAt,
			); err != nil {
				rows.Close()
				return fmt.Errorf("scan due reminder: %w", err)
			}
			rows_ = append(rows_, &cr)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		until := now.Add(leaseDuration)
		for _, cr := range rows_ {
			const lockQuery = `UPDATE custom_reminders SET locked_until_utc = $1 WHERE id = $2`
			if _, err := tx.Exec(ctx, lockQuery, until, cr.ID); err != nil {
				return fmt.Errorf("lock reminder %d: %w", cr.ID, err)
			}
			cr.LockedUntilUTC = &until
		}

		claimed = rows_
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// GetByID loads a single custom reminder.
func (r *CustomReminderRepository) GetByID(ctx context.Context, id int64) (*entities.CustomReminder, error) {
	const query = `
		SELECT cr.id, cr.user_id, u.chat_id, COALESCE(u.timezone, 'UTC'),
		       cr.time_of_day, cr.description, cr.repeat_interval_minutes,
		       cr.max_attempts_per_day, cr.cycle_local_date, cr.attempts_sent_today,
		       cr.done_today, cr.next_fire_at_utc, cr.last_sent_at_utc,
		       cr.locked_until_utc, cr.enabled, cr.created_at, cr.updated_at
		FROM custom_reminders cr
		JOIN users u ON u.id = cr.user_id
		WHERE cr.id = $1
	`
	var cr entities.CustomReminder
	err := r.db.QueryRow(ctx, query, id).Scan(
		&cr.ID, &cr.UserID, &cr.ChatID, &cr.Timezone,
		&cr.TimeOfDay, &cr.Description, &cr.RepeatIntervalMin,
		&cr.MaxAttemptsPerDay, &cr.CycleLocalDate, &cr.AttemptsSentToday,
		&cr.DoneToday, &cr.NextFireAtUTC, &cr.LastSentAtUTC,
		&cr.LockedUntilUTC, &cr.Enabled, &cr.CreatedAt, &cr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get custom reminder: %w", err)
	}
	return &cr, nil
}

// ListByUser lists every custom reminder owned by a user.
func (r *CustomReminderRepository) ListByUser(ctx context.Context, userID int64) ([]*entities.CustomReminder, error) {
	const query = `
		SELECT cr.id, cr.user_id, u.chat_id, COALESCE(u.timezone, 'UTC'),
		       cr.time_of_day, cr.description, cr.repeat_interval_minutes,
		       cr.max_attempts_per_day, cr.cycle_local_date, cr.attempts_sent_today,
		       cr.done_today, cr.next_fire_at_utc, cr.last_sent_at_utc,
		       cr.locked_until_utc, cr.enabled, cr.created_at, cr.updated_at
		FROM custom_reminders cr
		JOIN users u ON u.id = cr.user_id
		WHERE cr.user_id = $1
		ORDER BY cr.id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list custom reminders: %w", err)
	}
	defer rows.Close()

	var out []*entities.CustomReminder
	for rows.Next() {
		var cr entities.CustomReminder
		if err := rows.Scan(
			&cr.ID, &cr.UserID, &cr.ChatID, &cr.Timezone,
			&cr.TimeOfDay, &cr.Description, &cr.RepeatIntervalMin,
			&cr.MaxAttemptsPerDay, &cr.CycleLocalDate, &cr.AttemptsSentToday,
			&cr.DoneToday, &cr.NextFireAtUTC, &cr.LastSentAtUTC,
			&cr.LockedUntilUTC, &cr.Enabled, &cr.CreatedAt, &cr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan custom reminder: %w", err)
		}
		out = append(out, &cr)
	}
	return out, rows.Err()
}

// Insert creates a new custom reminder.
func (r *CustomReminderRepository) Insert(ctx context.Context, cr *entities.CustomReminder) error {
	const query = `
		INSERT INTO custom_reminders (
			user_id, time_of_day, description, repeat_interval_minutes,
			max_attempts_per_day, cycle_local_date, attempts_sent_today,
			done_today, next_fire_at_utc, last_sent_at_utc, locked_until_utc, enabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		cr.UserID, cr.TimeOfDay, cr.Description, cr.RepeatIntervalMin,
		cr.MaxAttemptsPerDay, cr.CycleLocalDate, cr.AttemptsSentToday,
		cr.DoneToday, cr.NextFireAtUTC, cr.LastSentAtUTC, cr.LockedUntilUTC, cr.Enabled,
	).Scan(&cr.ID, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert custom reminder: %w", err)
	}
	return nil
}

// Update persists mutable custom reminder fields (settings edits).
func (r *CustomReminderRepository) Update(ctx context.Context, cr *entities.CustomReminder) error {
	const query = `
		UPDATE custom_reminders SET
			time_of_day = $1, description = $2, repeat_interval_minutes = $3,
			max_attempts_per_day = $4, enabled = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		cr.TimeOfDay, cr.Description, cr.RepeatIntervalMin,
		cr.MaxAttemptsPerDay, cr.Enabled, cr.ID,
	).Scan(&cr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("update custom reminder: %w", err)
	}
	return nil
}

// Delete removes a custom reminder.
func (r *CustomReminderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM custom_reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete custom reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// AdvanceAfterSend applies the post-send state transition of §4.4 step 3:
// either the same-cycle interval bump or the next-day cycle reset, and
// always clears the lease.
func (r *CustomReminderRepository) AdvanceAfterSend(ctx context.Context, id int64, nextFireAtUTC time.Time, cycleLocalDate string, attemptsSentToday int, doneToday bool, lastSentAtUTC time.Time) error {
	const query = `
		UPDATE custom_reminders SET
			next_fire_at_utc = $1,
			cycle_local_date = $2,
			attempts_sent_today = $3,
			done_today = $4,
			last_sent_at_utc = $5,
			locked_until_utc = NULL,
			updated_at = now()
		WHERE id = $6
	`
	if _, err := r.db.Exec(ctx, query, nextFireAtUTC, cycleLocalDate, attemptsSentToday, doneToday, lastSentAtUTC, id); err != nil {
		return fmt.Errorf("advance custom reminder: %w", err)
	}
	return nil
}

// ReleaseLease re-arms next_fire_at_utc (e.g. after a transient send
// failure) and clears the lease without touching cycle bookkeeping.
func (r *CustomReminderRepository) ReleaseLease(ctx context.Context, id int64, nextFireAtUTC time.Time) error {
	const query = `
		UPDATE custom_reminders SET
			next_fire_at_utc = $1,
			locked_until_utc = NULL,
			updated_at = now()
		WHERE id = $2
	`
	if _, err := r.db.Exec(ctx, query, nextFireAtUTC, id); err != nil {
		return fmt.Errorf("release reminder lease: %w", err)
	}
	return nil
}

// ReleaseLeaseUnchanged clears a lease without touching next_fire_at_utc,
// used when a logic invariant fails and the system must fail closed,
// leaving the schedule for the next tick to reconsider.
func (r *CustomReminderRepository) ReleaseLeaseUnchanged(ctx context.Context, id int64) error {
	const query = `UPDATE custom_reminders SET locked_until_utc = NULL WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("release reminder lease: %w", err)
	}
	return nil
}

// recomputeSchedule rewrites a reminder's schedule bookkeeping wholesale:
// next fire time, cycle date, a reset attempt counter and lease, and the
// done_today flag. Used both to end a cycle early (MarkDoneToday) and to
// give a re-enabled reminder a fresh schedule (Reschedule).
func (r *CustomReminderRepository) recomputeSchedule(ctx context.Context, id int64, nextFireAtUTC time.Time, cycleLocalDate string, doneToday bool) error {
	const query = `
		UPDATE custom_reminders SET
			done_today = $1,
			next_fire_at_utc = $2,
			cycle_local_date = $3,
			attempts_sent_today = 0,
			locked_until_utc = NULL,
			updated_at = now()
		WHERE id = $4
	`
	if _, err := r.db.Exec(ctx, query, doneToday, nextFireAtUTC, cycleLocalDate, id); err != nil {
		return fmt.Errorf("recompute reminder schedule: %w", err)
	}
	return nil
}

// MarkDoneToday ends the current cycle regardless of remaining attempts and
// arms next_fire_at_utc/cycle_local_date for tomorrow's first occurrence, so
// a claimed-but-stale row can never fire again today, mirroring the
// original's mark_reminder_done_today.
func (r *CustomReminderRepository) MarkDoneToday(ctx context.Context, id int64, nextFireAtUTC time.Time, cycleLocalDate string) error {
	return r.recomputeSchedule(ctx, id, nextFireAtUTC, cycleLocalDate, true)
}

// Reschedule gives a reminder a fresh schedule starting from
// nextFireAtUTC/cycleLocalDate, resetting attempts_sent_today and
// done_today — used when re-enabling a reminder, mirroring the original's
// toggle_custom_reminder.
func (r *CustomReminderRepository) Reschedule(ctx context.Context, id int64, nextFireAtUTC time.Time, cycleLocalDate string) error {
	return r.recomputeSchedule(ctx, id, nextFireAtUTC, cycleLocalDate, false)
}
