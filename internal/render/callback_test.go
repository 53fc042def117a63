package render

import "testing"

func TestBuildAndParseTaskCallback(t *testing.T) {
	data := buildTaskCallback(actionTaskDone, 42)
	if data != "task:done:42" {
		t.Fatalf("encode = %q", data)
	}

	cb := ParseCallback(data)
	if cb.Kind != actionTask || cb.Action != actionTaskDone || cb.TaskID != 42 {
		t.Fatalf("parsed = %+v", cb)
	}
}

func TestBuildAndParseReminderCallback(t *testing.T) {
	data := buildReminderCallback(actionReminderDone, 7)
	cb := ParseCallback(data)
	if cb.Kind != actionReminder || cb.Action != actionReminderDone || cb.ReminderID != 7 {
		t.Fatalf("parsed = %+v", cb)
	}
}

func TestBuildAndParseDayCallback(t *testing.T) {
	data := buildDayCallback(actionSkipPlan)
	if data != "day:skip_plan" {
		t.Fatalf("encode = %q", data)
	}
	cb := ParseCallback(data)
	if cb.Kind != actionDay || cb.Action != actionSkipPlan {
		t.Fatalf("parsed = %+v", cb)
	}
}

func TestBuildAndParseMenuCallback(t *testing.T) {
	data := BuildMenuCallback("timezone")
	cb := ParseCallback(data)
	if cb.Kind != actionMenu || cb.MenuPath != "timezone" {
		t.Fatalf("parsed = %+v", cb)
	}
}

func TestParseCallbackUnknown(t *testing.T) {
	cases := []string{"", "bogus", "task:done", "reminder"}
	for _, c := range cases {
		if got := ParseCallback(c).Kind; got != "unknown" {
			t.Errorf("ParseCallback(%q).Kind = %q, want unknown", c, got)
		}
	}
}

func TestParseCallbackReminderWithoutID(t *testing.T) {
	cb := ParseCallback("reminder:done_today")
	if cb.Kind != actionReminder || cb.ReminderID != 0 {
		t.Fatalf("parsed = %+v", cb)
	}
}
