package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/repository"
)

// StatsService computes read-only aggregates over a user's plan history for
// the WebApp /stats and /history endpoints, grounded on
// original_source/src/services/stats.py.
type StatsService struct {
	plans *repository.PlanRepository
}

// NewStatsService creates a new StatsService.
func NewStatsService(plans *repository.PlanRepository) *StatsService {
	return &StatsService{plans: plans}
}

// HistoryEntry is one day's completion summary.
type HistoryEntry struct {
	Date    string `json:"date"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
}

// History returns one entry per plan the user has in the given YYYY-MM month.
func (s *StatsService) History(ctx context.Context, userID int64, yearMonth string) ([]HistoryEntry, error) {
	plans, err := s.plans.ListByUserAndMonth(ctx, userID, yearMonth)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(plans))
	for _, p := range plans {
		total := len(p.Tasks)
		done := doneCount(p.Tasks)
		percent := 0
		if total > 0 {
			percent = int(100*done/float64(total) + 0.5)
		}
		entries = append(entries, HistoryEntry{Date: p.LocalDate, Done: int(done + 0.5), Total: total, Percent: percent})
	}
	return entries, nil
}

// Stats is the aggregate view of a user's whole plan history.
type Stats struct {
	TotalPlans    int `json:"total_plans"`
	AvgPercent    int `json:"avg_percent"`
	CurrentStreak int `json:"current_streak"`
}

// Overview computes total plan count, average completion percent, and the
// current streak of consecutive 100%-complete local days ending at today.
func (s *StatsService) Overview(ctx context.Context, userID int64, today string) (Stats, error) {
	plans, err := s.plans.ListByUser(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	if len(plans) == 0 {
		return Stats{}, nil
	}

	byDate := make(map[string]*entities.Plan, len(plans))
	var percentSum int
	for _, p := range plans {
		byDate[p.LocalDate] = p
		percentSum += entities.CompletionPercent(p.Tasks)
	}
	avg := int(float64(percentSum)/float64(len(plans)) + 0.5)

	streak := 0
	d := today
	for {
		p, ok := byDate[d]
		if !ok || len(p.Tasks) == 0 || entities.CompletionPercent(p.Tasks) < 100 {
			break
		}
		streak++
		prev, err := previousDate(d)
		if err != nil {
			break
		}
		d = prev
	}

	return Stats{TotalPlans: len(plans), AvgPercent: avg, CurrentStreak: streak}, nil
}

func doneCount(tasks []entities.Task) float64 {
	var sum float64
	for _, t := range tasks {
		sum += entities.CompletionWeight(t.Status)
	}
	return sum
}

func previousDate(localDate string) (string, error) {
	var y, m, d int
	if _, err := fmt.Sscanf(localDate, "%04d-%02d-%02d", &y, &m, &d); err != nil {
		return "", err
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return t.Format("2006-01-02"), nil
}
