// Package service implements the business rules that sit between the
// transport/dispatch layers and the repositories: plan parsing and
// persistence, user settings, and custom reminder lifecycle management.
package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/repository"
)

const (
	maxTaskLen   = 500
	maxTasks     = 50
	maxTotalSize = 10_000
)

var numberPrefix = regexp.MustCompile(`^\d+[.)]\s*`)

// PlanService owns the plan-text parsing contract and the evening review
// verdicts, grounded on the plan parser of the original implementation.
type PlanService struct {
	plans *repository.PlanRepository
}

// NewPlanService creates a new PlanService.
func NewPlanService(plans *repository.PlanRepository) *PlanService {
	return &PlanService{plans: plans}
}

// ParsePlanText splits raw user input into a validated task list: one task
// per non-empty line, numbering prefixes stripped, each task truncated to
// maxTaskLen bytes, capped at maxTasks tasks, and rejected outright if the
// total size exceeds maxTotalSize bytes or no task survives.
func ParsePlanText(raw string) ([]string, error) {
	if len(raw) > maxTotalSize {
		return nil, fmt.Errorf("%w: plan text too long", apperr.ErrInvalidInput)
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var tasks []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = numberPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > maxTaskLen {
			line = line[:maxTaskLen]
		}
		tasks = append(tasks, line)
		if len(tasks) == maxTasks {
			break
		}
	}

	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks found in plan text", apperr.ErrInvalidInput)
	}

	return tasks, nil
}

// SubmitPlan parses and persists a plan for (userID, localDate), replacing
// any existing plan for that date.
func (s *PlanService) SubmitPlan(ctx context.Context, userID int64, localDate, rawText string) (*entities.Plan, error) {
	tasks, err := ParsePlanText(rawText)
	if err != nil {
		return nil, err
	}
	return s.plans.Save(ctx, userID, localDate, tasks)
}

// Today loads the plan for (userID, localDate), or nil if none exists.
func (s *PlanService) Today(ctx context.Context, userID int64, localDate string) (*entities.Plan, error) {
	plan, err := s.plans.GetByUserAndDate(ctx, userID, localDate)
	if err != nil {
		if apperr.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

// HasPlan reports whether a plan exists for (userID, localDate).
func (s *PlanService) HasPlan(ctx context.Context, userID int64, localDate string) (bool, error) {
	return s.plans.Exists(ctx, userID, localDate)
}

// RecordTaskStatus stores the evening-review verdict for one task, after
// verifying ownership against callerUserID.
func (s *PlanService) RecordTaskStatus(ctx context.Context, callerUserID, taskID int64, outcome entities.TaskOutcome, comment string) error {
	owner, err := s.plans.GetTaskOwner(ctx, taskID)
	if err != nil {
		return err
	}
	if owner != callerUserID {
		return apperr.ErrNotFound
	}
	return s.plans.SetTaskStatus(ctx, taskID, outcome, comment)
}
