package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"assessment-engine/internal/domain"
)

func TestSweepFinalizesFromDraft(t *testing.T) {
	svc, clock, _ := newTestEngine(t, sampleTest())
	ctx := context.Background()

	if _, err := svc.StartAttempt(ctx, "test-1", alice()); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Alice syncs a partial sheet, then goes silent.
	clock.advance(10 * time.Minute)
	if err := svc.SaveProgress(ctx, "test-1", "alice", []int{1, 0, domain.Unanswered}); err != nil {
		t.Fatalf("save progress: %v", err)
	}

	clock.t = t0.Add(40 * time.Minute)
	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 finalized attempt, got %d", n)
	}

	sub, err := svc.GetMySubmission(ctx, "test-1", "alice")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if sub.Score != 4 {
		t.Fatalf("sweep scored %d from draft, want 4", sub.Score)
	}
	// The forced submission pins the deadline as its timestamp.
	if want := t0.Add(30 * time.Minute); !sub.SubmittedAt.Equal(want) {
		t.Fatalf("submittedAt = %v, want %v", sub.SubmittedAt, want)
	}
}

func TestSweepFinalizesUnansweredWithoutDraft(t *testing.T) {
	svc, clock, _ := newTestEngine(t, sampleTest())
	ctx := context.Background()

	if _, err := svc.StartAttempt(ctx, "test-1", alice()); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.t = t0.Add(time.Hour)
	if _, err := svc.SweepExpired(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	sub, err := svc.GetMySubmission(ctx, "test-1", "alice")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if sub.Score != 0 {
		t.Fatalf("expected zero score, got %d", sub.Score)
	}
	for _, a := range sub.Answers {
		if a != domain.Unanswered {
			t.Fatalf("expected all unanswered, got %v", sub.Answers)
		}
	}
}

func TestSweepSkipsAttemptsInsideGrace(t *testing.T) {
	svc, clock, _ := newTestEngine(t, sampleTest())
	ctx := context.Background()

	if _, err := svc.StartAttempt(ctx, "test-1", alice()); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Just past the deadline but inside grace: the client may still submit.
	clock.t = t0.Add(30*time.Minute + 10*time.Second)
	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("sweep finalized %d attempts inside grace", n)
	}

	if _, err := svc.SubmitTest(ctx, "test-1", alice(), []int{1, 0, 1}); err != nil {
		t.Fatalf("late submit inside grace: %v", err)
	}
}

func TestSweepLosesRaceToClientSubmit(t *testing.T) {
	svc, clock, _ := newTestEngine(t, sampleTest())
	ctx := context.Background()

	if _, err := svc.StartAttempt(ctx, "test-1", alice()); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.advance(5 * time.Minute)
	first, err := svc.SubmitTest(ctx, "test-1", alice(), []int{1, 0, 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	clock.t = t0.Add(2 * time.Hour)
	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("sweep double-finalized a submitted attempt")
	}

	stored, err := svc.GetMySubmission(ctx, "test-1", "alice")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if stored.ID != first.ID || stored.Score != 6 {
		t.Fatalf("sweep clobbered the client submission: %+v", stored)
	}
}

func TestSaveProgressRequiresAttempt(t *testing.T) {
	svc, _, _ := newTestEngine(t, sampleTest())
	err := svc.SaveProgress(context.Background(), "test-1", "alice", []int{1})
	if !errors.Is(err, domain.ErrNoActiveAttempt) {
		t.Fatalf("expected ErrNoActiveAttempt, got %v", err)
	}
}
