package app

import (
	"context"
	"errors"
	"time"

	"assessment-engine/internal/domain"

	"go.uber.org/zap"
)

// StartAttempt opens a test attempt for a participant. The attempt deadline
// is startedAt plus the test duration, clipped so it never outlives the
// assessment window. Calling again while an attempt is active returns the
// existing attempt with ErrAttemptInProgress.
func (s *Service) StartAttempt(ctx context.Context, assessmentID string, p domain.Participant) (domain.Attempt, error) {
	a, err := s.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if a.Kind != domain.KindTest {
		return domain.Attempt{}, domain.ErrNotATest
	}
	if err := Evaluate(a, p); err != nil {
		return domain.Attempt{}, err
	}

	now := s.now()
	switch a.StateAt(now) {
	case domain.StateScheduled:
		return domain.Attempt{}, domain.ErrNotYetLive
	case domain.StateClosed, domain.StateFinalized:
		return domain.Attempt{}, domain.ErrClosed
	}

	if _, err := s.submissions.GetSubmission(ctx, assessmentID, p.ID); err == nil {
		return domain.Attempt{}, domain.ErrAlreadySubmitted
	} else if !errors.Is(err, domain.ErrSubmissionNotFound) {
		return domain.Attempt{}, err
	}

	deadline := now.Add(time.Duration(a.DurationMinutes) * time.Minute)
	if deadline.After(a.ExpiresAt) {
		deadline = a.ExpiresAt
	}
	attempt, created, err := s.attempts.TryCreateAttempt(ctx, domain.Attempt{
		AssessmentID:  assessmentID,
		ParticipantID: p.ID,
		StartedAt:     now,
		Deadline:      deadline,
	})
	if err != nil {
		return domain.Attempt{}, err
	}
	if !created {
		return attempt, domain.ErrAttemptInProgress
	}
	s.log.Info("attempt started",
		zap.String("assessment", assessmentID),
		zap.String("participant", p.ID),
		zap.Time("deadline", attempt.Deadline))
	return attempt, nil
}

// SaveProgress records the participant's current answer sheet for an active
// attempt. The sweep finalizes from the last saved draft when the deadline
// lapses without a submit.
func (s *Service) SaveProgress(ctx context.Context, assessmentID, participantID string, answers []int) error {
	a, err := s.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return err
	}
	attempt, ok, err := s.attempts.GetActiveAttempt(ctx, assessmentID, participantID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNoActiveAttempt
	}
	if s.now().After(attempt.Deadline.Add(s.grace)) {
		return domain.ErrClosed
	}
	return s.drafts.SaveDraft(ctx, assessmentID, participantID, normalizeAnswers(a.Questions, answers))
}

// SubmitTest finalizes an active attempt into the participant's one and only
// submission. The stored attempt deadline, not the client timer, decides
// lateness; submissions within the grace window are accepted. A repeat call
// returns the original submission with ErrAlreadySubmitted.
func (s *Service) SubmitTest(ctx context.Context, assessmentID string, p domain.Participant, answers []int) (domain.Submission, error) {
	a, err := s.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Submission{}, err
	}
	if a.Kind != domain.KindTest {
		return domain.Submission{}, domain.ErrNotATest
	}
	if err := Evaluate(a, p); err != nil {
		return domain.Submission{}, err
	}

	attempt, ok, err := s.attempts.GetActiveAttempt(ctx, assessmentID, p.ID)
	if err != nil {
		return domain.Submission{}, err
	}
	if !ok {
		// No attempt left: either never started, or already converted.
		if existing, err := s.submissions.GetSubmission(ctx, assessmentID, p.ID); err == nil {
			return existing, domain.ErrAlreadySubmitted
		} else if !errors.Is(err, domain.ErrSubmissionNotFound) {
			return domain.Submission{}, err
		}
		return domain.Submission{}, domain.ErrNoActiveAttempt
	}

	now := s.now()
	if now.After(attempt.Deadline.Add(s.grace)) {
		// Too late even for grace; the sweep owns this attempt now.
		return domain.Submission{}, domain.ErrClosed
	}

	return s.finalizeAttempt(ctx, a, attempt, answers, now)
}

// finalizeAttempt scores the sheet and atomically converts the attempt into
// a submission. Shared by the client submit path and the expiry sweep, so
// both race through the same create-once gate.
func (s *Service) finalizeAttempt(ctx context.Context, a domain.Assessment, attempt domain.Attempt, answers []int, now time.Time) (domain.Submission, error) {
	sheet := normalizeAnswers(a.Questions, answers)
	score, total := Score(a.Questions, sheet)

	taken := int(now.Sub(attempt.StartedAt) / time.Second)
	if max := int(attempt.Deadline.Sub(attempt.StartedAt) / time.Second); taken > max {
		taken = max
	}

	stored, created, err := s.submissions.CreateSubmissionOnce(ctx, domain.Submission{
		ID:               s.newID(),
		AssessmentID:     a.ID,
		ParticipantID:    attempt.ParticipantID,
		SubmittedAt:      now,
		TimeTakenSeconds: taken,
		Answers:          sheet,
		Score:            score,
		TotalMarks:       total,
		Percentage:       Percentage(score, total),
	})
	if err != nil {
		return domain.Submission{}, err
	}

	// The attempt and its draft are consumed either way; losing the race
	// means someone else already finalized this participant.
	if err := s.attempts.DeleteAttempt(ctx, a.ID, attempt.ParticipantID); err != nil {
		s.log.Warn("delete attempt failed", zap.String("assessment", a.ID), zap.Error(err))
	}
	if err := s.drafts.DeleteDraft(ctx, a.ID, attempt.ParticipantID); err != nil {
		s.log.Warn("delete draft failed", zap.String("assessment", a.ID), zap.Error(err))
	}

	if !created {
		return stored, domain.ErrAlreadySubmitted
	}
	s.log.Info("test submitted",
		zap.String("assessment", a.ID),
		zap.String("participant", attempt.ParticipantID),
		zap.Int("score", score),
		zap.Int("totalMarks", total))
	s.broadcastStandings(ctx, a.ID)
	return stored, nil
}

// SubmitContest validates a contest entry against the form schema and stores
// it once. Contests have no attempt phase; the submission deadline gates
// directly.
func (s *Service) SubmitContest(ctx context.Context, assessmentID string, p domain.Participant, responses []domain.FormResponse) (domain.Submission, error) {
	a, err := s.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Submission{}, err
	}
	if a.Kind != domain.KindContest {
		return domain.Submission{}, domain.ErrNotAContest
	}
	if err := Evaluate(a, p); err != nil {
		return domain.Submission{}, err
	}

	now := s.now()
	switch a.StateAt(now) {
	case domain.StateScheduled:
		return domain.Submission{}, domain.ErrNotYetLive
	case domain.StateClosed, domain.StateFinalized:
		return domain.Submission{}, domain.ErrClosed
	}
	if now.After(a.SubmissionDeadline) {
		return domain.Submission{}, domain.ErrClosed
	}

	if err := domain.ValidateResponses(a.FormSchema, responses); err != nil {
		return domain.Submission{}, err
	}

	stored, created, err := s.submissions.CreateSubmissionOnce(ctx, domain.Submission{
		ID:            s.newID(),
		AssessmentID:  assessmentID,
		ParticipantID: p.ID,
		SubmittedAt:   now,
		FormResponses: responses,
	})
	if err != nil {
		return domain.Submission{}, err
	}
	if !created {
		return stored, domain.ErrAlreadySubmitted
	}
	s.log.Info("contest entry submitted",
		zap.String("assessment", assessmentID),
		zap.String("participant", p.ID))
	s.broadcastStandings(ctx, assessmentID)
	return stored, nil
}
