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

// PlanRepository provides typed access to plans, their tasks and statuses.
type PlanRepository struct {
	db  *pgxpool.Pool
	txr *postgres.Transactor
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *pgxpool.Pool, txr *postgres.Transactor) *PlanRepository {
	return &PlanRepository{db: db, txr: txr}
}

// GetByUserAndDate loads a plan with its tasks and statuses, or
// apperr.ErrNotFound if the user has no plan for that local date.
func (r *PlanRepository) GetByUserAndDate(ctx context.Context, userID int64, localDate string) (*entities.Plan, error) {
	const planQuery = `
		SELECT id, user_id, local_date, created_at
		FROM plans
		WHERE user_id = $1 AND local_date = $2
	`
	var p entities.Plan
	err := r.db.QueryRow(ctx, planQuery, userID, localDate).Scan(&p.ID, &p.UserID, &p.LocalDate, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}

	const taskQuery = `
		SELECT t.id, t.position, t.text,
		       ts.outcome, ts.comment, ts.responded_at
		FROM tasks t
		LEFT JOIN task_statuses ts ON ts.task_id = t.id
		WHERE t.plan_id = $1
		ORDER BY t.position
	`
	rows, err := r.db.Query(ctx, taskQuery, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t entities.Task
		var outcome *entities.TaskOutcome
		var comment *string
		var respondedAt *time.Time
		if err := rows.Scan(&t.ID, &t.Position, &t.Text, &outcome, &comment, &respondedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.PlanID = p.ID
		if outcome != nil {
			t.Status = &entities.TaskStatus{
				TaskID:  t.ID,
				Outcome: *outcome,
			}
			if respondedAt != nil {
				t.Status.RespondedAt = *respondedAt
			}
			if comment != nil {
				t.Status.Comment = *comment
			}
		}
		p.Tasks = append(p.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Save upserts a plan by (user, local_date): if a plan already exists its
// tasks are deleted (cascading away any statuses) and replaced wholesale,
// giving re-submission idempotent last-writer-wins semantics.
func (r *PlanRepository) Save(ctx context.Context, userID int64, localDate string, taskTexts []string) (*entities.Plan, error) {
	var plan entities.Plan

	err := r.txr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		const upsertPlan = `
			INSERT INTO plans (user_id, local_date)
			VALUES ($1, $2)
			ON CONFLICT (user_id, local_date) DO UPDATE SET local_date = EXCLUDED.local_date
			RETURNING id, user_id, local_date, created_at
		`
		if err := tx.QueryRow(ctx, upsertPlan, userID, localDate).Scan(
			&plan.ID, &plan.UserID, &plan.LocalDate, &plan.CreatedAt,
		); err != nil {
			return fmt.Errorf("upsert plan: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE plan_id = $1`, plan.ID); err != nil {
			return fmt.Errorf("delete old tasks: %w", err)
		}

		for i, text := range taskTexts {
			var t entities.Task
			const insertTask = `
				INSERT INTO tasks (plan_id, position, text)
				VALUES ($1, $2, $3)
				RETURNING id
			`
			if err := tx.QueryRow(ctx, insertTask, plan.ID, i, text).Scan(&t.ID); err != nil {
				return fmt.Errorf("insert task: %w", err)
			}
			t.PlanID = plan.ID
			t.Position = i
			t.Text = text
			plan.Tasks = append(plan.Tasks, t)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

// ListByUserAndMonth loads every plan (with tasks/statuses) for userID whose
// local_date falls within the given YYYY-MM month, newest first, used by the
// /history WebApp endpoint.
func (r *PlanRepository) ListByUserAndMonth(ctx context.Context, userID int64, yearMonth string) ([]*entities.Plan, error) {
	const query = `
		SELECT id, local_date
		FROM plans
		WHERE user_id = $1 AND local_date LIKE $2
		ORDER BY local_date DESC
	`
	rows, err := r.db.Query(ctx, query, userID, yearMonth+"-%")
	if err != nil {
		return nil, fmt.Errorf("list plans by month: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var id int64
		var localDate string
		if err := rows.Scan(&id, &localDate); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		dates = append(dates, localDate)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	plans := make([]*entities.Plan, 0, len(dates))
	for _, d := range dates {
		p, err := r.GetByUserAndDate(ctx, userID, d)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// ListByUser loads every plan (with tasks/statuses) for userID, newest
// local_date first, used by the /stats WebApp endpoint to compute the
// running completion average and current streak.
func (r *PlanRepository) ListByUser(ctx context.Context, userID int64) ([]*entities.Plan, error) {
	const query = `
		SELECT local_date
		FROM plans
		WHERE user_id = $1
		ORDER BY local_date DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var localDate string
		if err := rows.Scan(&localDate); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		dates = append(dates, localDate)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	plans := make([]*entities.Plan, 0, len(dates))
	for _, d := range dates {
		p, err := r.GetByUserAndDate(ctx, userID, d)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// Exists reports whether a plan exists for (user, local_date) — used by the
// morning-reminder precondition.
func (r *PlanRepository) Exists(ctx context.Context, userID int64, localDate string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM plans WHERE user_id = $1 AND local_date = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, localDate).Scan(&exists); err != nil {
		return false, fmt.Errorf("check plan exists: %w", err)
	}
	return exists, nil
}

// SetTaskStatus records or overwrites the evening-review verdict for one task.
func (r *PlanRepository) SetTaskStatus(ctx context.Context, taskID int64, outcome entities.TaskOutcome, comment string) error {
	const query = `
		INSERT INTO task_statuses (task_id, outcome, comment, responded_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (task_id) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			comment = EXCLUDED.comment,
			responded_at = EXCLUDED.responded_at
	`
	if _, err := r.db.Exec(ctx, query, taskID, outcome, nullIfEmpty(comment)); err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	return nil
}

// GetTaskOwner returns the owning user id for a task, used to enforce the
// "not owned by caller" 404 rule of the HTTP surface.
func (r *PlanRepository) GetTaskOwner(ctx context.Context, taskID int64) (userID int64, err error) {
	const query = `
		SELECT p.user_id
		FROM tasks t
		JOIN plans p ON p.id = t.plan_id
		WHERE t.id = $1
	`
	if err := r.db.QueryRow(ctx, query, taskID).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.ErrNotFound
		}
		return 0, fmt.Errorf("get task owner: %w", err)
	}
	return userID, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
