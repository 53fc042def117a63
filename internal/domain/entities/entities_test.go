package entities

import "testing"

func TestNewUserDefaults(t *testing.T) {
	u := NewUser(1, 1)
	if u.Timezone != "UTC" || u.MorningTime != "07:00" || u.EveningTime != "21:00" {
		t.Fatalf("unexpected defaults: %+v", u)
	}
	if u.MorningReminderIntervalMin != 60 || u.MorningReminderMaxAttempts != 1 {
		t.Fatalf("unexpected reminder defaults: %+v", u)
	}
	if u.Onboarded() {
		t.Fatal("a fresh user should not be onboarded")
	}
}

func TestUserOnboarded(t *testing.T) {
	u := NewUser(1, 1)
	u.OnboardedTimezone = true
	u.OnboardedMorning = true
	if u.Onboarded() {
		t.Fatal("should require all three onboarding steps")
	}
	u.OnboardedEvening = true
	if !u.Onboarded() {
		t.Fatal("should be onboarded once all three steps are set")
	}
}

func TestCompletionWeight(t *testing.T) {
	cases := []struct {
		status *TaskStatus
		want   float64
	}{
		{nil, 0},
		{&TaskStatus{Outcome: TaskDone}, 1.0},
		{&TaskStatus{Outcome: TaskPartial}, 0.5},
		{&TaskStatus{Outcome: TaskFailed}, 0},
	}
	for _, c := range cases {
		if got := CompletionWeight(c.status); got != c.want {
			t.Errorf("CompletionWeight(%+v) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestCompletionPercent(t *testing.T) {
	if got := CompletionPercent(nil); got != 0 {
		t.Fatalf("empty plan percent = %d, want 0", got)
	}

	tasks := []Task{
		{Status: &TaskStatus{Outcome: TaskDone}},
		{Status: &TaskStatus{Outcome: TaskPartial}},
		{Status: nil},
		{Status: &TaskStatus{Outcome: TaskFailed}},
	}
	// (1 + 0.5 + 0 + 0) / 4 = 0.375 -> 37.5% -> rounds to 38
	if got := CompletionPercent(tasks); got != 38 {
		t.Fatalf("CompletionPercent = %d, want 38", got)
	}
}

func TestCompletionPercentAllDone(t *testing.T) {
	tasks := []Task{
		{Status: &TaskStatus{Outcome: TaskDone}},
		{Status: &TaskStatus{Outcome: TaskDone}},
	}
	if got := CompletionPercent(tasks); got != 100 {
		t.Fatalf("CompletionPercent = %d, want 100", got)
	}
}

func TestAllAnswered(t *testing.T) {
	answered := []Task{{Status: &TaskStatus{Outcome: TaskDone}}}
	if !AllAnswered(answered) {
		t.Fatal("expected all answered")
	}

	unanswered := []Task{{Status: &TaskStatus{Outcome: TaskDone}}, {Status: nil}}
	if AllAnswered(unanswered) {
		t.Fatal("expected not all answered")
	}

	if !AllAnswered(nil) {
		t.Fatal("an empty task list is vacuously all-answered")
	}
}

func TestStatusIcon(t *testing.T) {
	cases := []struct {
		status *TaskStatus
		want   string
	}{
		{nil, "—"},
		{&TaskStatus{Outcome: TaskDone}, "✅"},
		{&TaskStatus{Outcome: TaskPartial}, "⚠"},
		{&TaskStatus{Outcome: TaskFailed}, "❌"},
	}
	for _, c := range cases {
		if got := StatusIcon(c.status); got != c.want {
			t.Errorf("StatusIcon(%+v) = %q, want %q", c.status, got, c.want)
		}
	}
}
