package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAssessmentNotFound is returned for an unknown assessment ID.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrSubmissionNotFound is returned when a participant has no submission yet.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrNotYetLive is returned for actions attempted before liveAt.
	ErrNotYetLive = errors.New("assessment not yet live")
	// ErrClosed is returned for actions attempted after the window or deadline.
	ErrClosed = errors.New("assessment closed")
	// ErrNotATest is returned when a test-only action targets a contest.
	ErrNotATest = errors.New("assessment is not a test")
	// ErrNotAContest is returned when a contest-only action targets a test.
	ErrNotAContest = errors.New("assessment is not a contest")
	// ErrNoActiveAttempt is returned when a submit arrives without a started attempt.
	ErrNoActiveAttempt = errors.New("no active attempt")
	// ErrAttemptInProgress signals an idempotent start; the existing attempt
	// is returned alongside it.
	ErrAttemptInProgress = errors.New("attempt already in progress")
	// ErrAlreadySubmitted signals an idempotent submit; the original
	// submission is returned alongside it, unchanged.
	ErrAlreadySubmitted = errors.New("already submitted")
	// ErrNotYetPublished gates the leaderboard until the admin publishes.
	ErrNotYetPublished = errors.New("results not yet published")
	// ErrInvalidState rejects a lifecycle transition from the wrong state.
	ErrInvalidState = errors.New("invalid lifecycle state for operation")
	// ErrAdminOnly rejects admin operations without admin credentials.
	ErrAdminOnly = errors.New("admin only")
)

// DenyReason says why admission was refused.
type DenyReason string

const (
	DenyCohortMismatch   DenyReason = "cohort_mismatch"
	DenyPaidTierRequired DenyReason = "paid_tier_required"
)

// AdmissionDeniedError carries the admission refusal reason so the
// presentation layer can render a specific message instead of a generic one.
type AdmissionDeniedError struct {
	Reason DenyReason
}

func (e *AdmissionDeniedError) Error() string {
	return fmt.Sprintf("admission denied: %s", e.Reason)
}

// ValidationError points at the offending field of a contest form or an
// assessment definition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Message)
}
