package timeutil

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tod.Hour != 7 || tod.Minute != 5 {
		t.Fatalf("got %+v", tod)
	}
	if got := tod.String(); got != "07:05" {
		t.Fatalf("String() = %q", got)
	}
	if got := tod.MinutesOfDay(); got != 7*60+5 {
		t.Fatalf("MinutesOfDay() = %d", got)
	}
}

func TestParseTimeOfDayInvalid(t *testing.T) {
	if _, err := ParseTimeOfDay("25:99"); err == nil {
		t.Fatal("expected error for invalid time of day")
	}
}

func TestLoadZoneEmptyIsUTC(t *testing.T) {
	loc, err := LoadZone("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}

func TestLoadZoneUnresolvable(t *testing.T) {
	if _, err := LoadZone("Not/AZone"); err == nil {
		t.Fatal("expected error for unresolvable zone")
	}
}

func TestNowInZone(t *testing.T) {
	loc, err := LoadZone("Europe/Moscow")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	now := time.Date(2026, 7, 31, 20, 30, 0, 0, time.UTC) // 23:30 MSK
	_, local, date := NowInZone(loc, now)
	if local.Hour() != 23 || local.Minute() != 30 {
		t.Fatalf("local = %v", local)
	}
	if date.String() != "2026-07-31" {
		t.Fatalf("date = %v", date)
	}
}

func TestNextLocalTimeAfterSameDay(t *testing.T) {
	loc := time.UTC
	tod := TimeOfDay{Hour: 7, Minute: 0}
	after := time.Date(2026, 7, 31, 5, 0, 0, 0, time.UTC)

	got := NextLocalTimeAfter(loc, tod, after)
	want := time.Date(2026, 7, 31, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextLocalTimeAfterRollsToNextDay(t *testing.T) {
	loc := time.UTC
	tod := TimeOfDay{Hour: 7, Minute: 0}
	after := time.Date(2026, 7, 31, 7, 0, 0, 0, time.UTC) // exactly at the time of day

	got := NextLocalTimeAfter(loc, tod, after)
	want := time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextLocalTimeAfterIsStable(t *testing.T) {
	loc, err := LoadZone("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	tod := TimeOfDay{Hour: 9, Minute: 30}
	after := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC) // DST spring-forward window in US

	first := NextLocalTimeAfter(loc, tod, after)
	second := NextLocalTimeAfter(loc, tod, after)
	if !first.Equal(second) {
		t.Fatalf("not stable: %v != %v", first, second)
	}
}

func TestLocalDateInZone(t *testing.T) {
	loc, err := LoadZone("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	instant := time.Date(2026, 7, 31, 20, 0, 0, 0, time.UTC) // 05:00 next day in Tokyo
	date := LocalDateInZone(loc, instant)
	if date.String() != "2026-08-01" {
		t.Fatalf("date = %v", date)
	}
}
