package service

import (
	"testing"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
)

func TestPreviousDate(t *testing.T) {
	cases := map[string]string{
		"2026-08-01": "2026-07-31",
		"2026-03-01": "2026-02-28", // non-leap year
		"2024-03-01": "2024-02-29", // leap year
		"2026-01-01": "2025-12-31",
	}
	for in, want := range cases {
		got, err := previousDate(in)
		if err != nil {
			t.Fatalf("previousDate(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("previousDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPreviousDateInvalid(t *testing.T) {
	if _, err := previousDate("not-a-date"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestDoneCount(t *testing.T) {
	tasks := []entities.Task{
		{Status: &entities.TaskStatus{Outcome: entities.TaskDone}},
		{Status: &entities.TaskStatus{Outcome: entities.TaskPartial}},
		{Status: nil},
	}
	if got := doneCount(tasks); got != 1.5 {
		t.Fatalf("doneCount = %v, want 1.5", got)
	}
}
