package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/domain/entities"
)

// UserRepository provides typed access to the users table.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository with the provided database pool.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate loads a user by Telegram chat id, creating one with the
// documented defaults on first contact.
func (r *UserRepository) GetOrCreate(ctx context.Context, chatID int64) (*entities.User, error) {
	u, err := r.GetByChatID(ctx, chatID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	u = entities.NewUser(chatID, chatID)
	if err := r.Insert(ctx, u); err != nil {
		return nil, fmt.Errorf("insert default user: %w", err)
	}
	return u, nil
}

// GetByChatID loads a user by Telegram chat id.
func (r *UserRepository) GetByChatID(ctx context.Context, chatID int64) (*entities.User, error) {
	const query = `
		SELECT id, chat_id, timezone, morning_time, evening_time,
		       morning_reminder_interval_minutes, morning_reminder_max_attempts,
		       onboarded_timezone, onboarded_morning, onboarded_evening,
		       created_at, updated_at
		FROM users
		WHERE chat_id = $1
	`

	var u entities.User
	err := r.db.QueryRow(ctx, query, chatID).Scan(
		&u.ID, &u.ChatID, &u.Timezone, &u.MorningTime, &u.EveningTime,
		&u.MorningReminderIntervalMin, &u.MorningReminderMaxAttempts,
		&u.OnboardedTimezone, &u.OnboardedMorning, &u.OnboardedEvening,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get user by chat id: %w", err)
	}
	return &u, nil
}

// GetByID loads a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	const query = `
		SELECT id, chat_id, timezone, morning_time, evening_time,
		       morning_reminder_interval_minutes, morning_reminder_max_attempts,
		       onboarded_timezone, onboarded_morning, onboarded_evening,
		       created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u entities.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.ChatID, &u.Timezone, &u.MorningTime, &u.EveningTime,
		&u.MorningReminderIntervalMin, &u.MorningReminderMaxAttempts,
		&u.OnboardedTimezone, &u.OnboardedMorning, &u.OnboardedEvening,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// Insert creates a new user row, filling in the generated id/timestamps.
func (r *UserRepository) Insert(ctx context.Context, u *entities.User) error {
	const query = `
		INSERT INTO users (
			id, chat_id, timezone, morning_time, evening_time,
			morning_reminder_interval_minutes, morning_reminder_max_attempts,
			onboarded_timezone, onboarded_morning, onboarded_evening
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		u.ID, u.ChatID, u.Timezone, u.MorningTime, u.EveningTime,
		u.MorningReminderIntervalMin, u.MorningReminderMaxAttempts,
		u.OnboardedTimezone, u.OnboardedMorning, u.OnboardedEvening,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update persists mutable user settings (timezone, schedule, reminder
// cadence, onboarding flags).
func (r *UserRepository) Update(ctx context.Context, u *entities.User) error {
	const query = `
		UPDATE users SET
			timezone = $1,
			morning_time = $2,
			evening_time = $3,
			morning_reminder_interval_minutes = $4,
			morning_reminder_max_attempts = $5,
			onboarded_timezone = $6,
			onboarded_morning = $7,
			onboarded_evening = $8,
			updated_at = now()
		WHERE id = $9
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		u.Timezone, u.MorningTime, u.EveningTime,
		u.MorningReminderIntervalMin, u.MorningReminderMaxAttempts,
		u.OnboardedTimezone, u.OnboardedMorning, u.OnboardedEvening,
		u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// ListEnabledPage pages through every user for the daily tick dispatcher.
func (r *UserRepository) ListEnabledPage(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	const query = `
		SELECT id, chat_id, timezone, morning_time, evening_time,
		       morning_reminder_interval_minutes, morning_reminder_max_attempts,
		       onboarded_timezone, onboarded_morning, onboarded_evening,
		       created_at, updated_at
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users page: %w", err)
	}
	defer rows.Close()

	var out []*entities.User
	for rows.Next() {
		var u entities.User
		if err := rows.Scan(
			&u.ID, &u.ChatID, &u.Timezone, &u.MorningTime, &u.EveningTime,
			&u.MorningReminderIntervalMin, &u.MorningReminderMaxAttempts,
			&u.OnboardedTimezone, &u.OnboardedMorning, &u.OnboardedEvening,
			&u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
