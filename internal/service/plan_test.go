package service

import (
	"strings"
	"testing"

	"github.com/aliskhannn/plannerbot/internal/apperr"
)

func TestParsePlanTextBasic(t *testing.T) {
	tasks, err := ParsePlanText("1. write report\n2) call client\n- water plants\nbuy milk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"write report", "call client", "- water plants", "buy milk"}
	if len(tasks) != len(want) {
		t.Fatalf("got %v, want %v", tasks, want)
	}
	for i := range want {
		if tasks[i] != want[i] {
			t.Errorf("task %d = %q, want %q", i, tasks[i], want[i])
		}
	}
}

func TestParsePlanTextSkipsBlankLines(t *testing.T) {
	tasks, err := ParsePlanText("first\n\n\nsecond\r\n\r\nthird")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("tasks = %v", tasks)
	}
}

func TestParsePlanTextEmptyIsInvalid(t *testing.T) {
	_, err := ParsePlanText("   \n\n  ")
	if !apperr.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestParsePlanTextTooLongIsInvalid(t *testing.T) {
	_, err := ParsePlanText(strings.Repeat("a", maxTotalSize+1))
	if !apperr.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestParsePlanTextTruncatesLongTask(t *testing.T) {
	long := strings.Repeat("x", maxTaskLen+50)
	tasks, err := ParsePlanText(long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || len(tasks[0]) != maxTaskLen {
		t.Fatalf("task length = %d, want %d", len(tasks[0]), maxTaskLen)
	}
}

func TestParsePlanTextCapsTaskCount(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxTasks+20; i++ {
		b.WriteString("task\n")
	}
	tasks, err := ParsePlanText(b.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != maxTasks {
		t.Fatalf("got %d tasks, want %d", len(tasks), maxTasks)
	}
}
