package fsm

import (
	"context"
	"testing"
)

func TestStoreGetDefaultsToIdle(t *testing.T) {
	s := New(nil)
	sess, err := s.Get(context.Background(), 123)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.State != StateIdle {
		t.Fatalf("state = %v, want idle", sess.State)
	}
}

func TestStoreSetAndGetRoundTrip(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	sess := Session{State: StateAwaitingPlan}
	if err := SetData(&sess, PlanData{PlanDate: "2026-07-31"}); err != nil {
		t.Fatalf("set data: %v", err)
	}
	if err := s.Set(ctx, 123, sess); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.Get(ctx, 123)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != StateAwaitingPlan {
		t.Fatalf("state = %v", got.State)
	}

	var data PlanData
	if err := DataInto(got, &data); err != nil {
		t.Fatalf("data into: %v", err)
	}
	if data.PlanDate != "2026-07-31" {
		t.Fatalf("plan date = %q", data.PlanDate)
	}
}

func TestStoreResetReturnsToIdle(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	if err := s.Set(ctx, 1, Session{State: StateAwaitingComment}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Reset(ctx, 1); err != nil {
		t.Fatalf("reset: %v", err)
	}

	sess, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.State != StateIdle || len(sess.Data) != 0 {
		t.Fatalf("session not reset: %+v", sess)
	}
}

func TestDataIntoWithoutDataErrors(t *testing.T) {
	var out PlanData
	if err := DataInto(Session{State: StateIdle}, &out); err == nil {
		t.Fatal("expected error decoding empty data")
	}
}

func TestSessionsAreIndependentPerChat(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	if err := s.Set(ctx, 1, Session{State: StateAwaitingPlan}); err != nil {
		t.Fatalf("set chat 1: %v", err)
	}
	if err := s.Set(ctx, 2, Session{State: StateSettingsInput}); err != nil {
		t.Fatalf("set chat 2: %v", err)
	}

	one, _ := s.Get(ctx, 1)
	two, _ := s.Get(ctx, 2)
	if one.State != StateAwaitingPlan || two.State != StateSettingsInput {
		t.Fatalf("sessions bled into each other: %+v / %+v", one, two)
	}
}
