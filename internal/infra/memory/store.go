package memory

import (
	"context"
	"sync"
	"time"

	"assessment-engine/internal/domain"
)

type attemptKey struct {
	assessmentID  string
	participantID string
}

// Store is the in-memory backing for all engine records: assessments,
// attempts and submissions. A single mutex guards every map, which is what
// makes CreateSubmissionOnce genuinely atomic here, mirroring the unique
// constraint the Postgres store relies on.
type Store struct {
	mu          sync.RWMutex
	assessments map[string]domain.Assessment
	attempts    map[attemptKey]domain.Attempt
	submissions map[attemptKey]domain.Submission
}

func NewStore() *Store {
	return &Store{
		assessments: make(map[string]domain.Assessment),
		attempts:    make(map[attemptKey]domain.Attempt),
		submissions: make(map[attemptKey]domain.Submission),
	}
}

func (s *Store) GetAssessment(_ context.Context, id string) (domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[id]
	if !ok {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	return a, nil
}

func (s *Store) ListAssessments(_ context.Context) ([]domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) CreateAssessment(_ context.Context, a domain.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assessments[a.ID]; exists {
		return &domain.ValidationError{Field: "id", Message: "already exists"}
	}
	s.assessments[a.ID] = a
	return nil
}

func (s *Store) MarkResultsPublished(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[id]
	if !ok {
		return domain.ErrAssessmentNotFound
	}
	a.ResultsPublished = true
	s.assessments[id] = a
	return nil
}

func (s *Store) TryCreateAttempt(_ context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	key := attemptKey{attempt.AssessmentID, attempt.ParticipantID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.attempts[key]; ok {
		return existing, false, nil
	}
	s.attempts[key] = attempt
	return attempt, true, nil
}

func (s *Store) GetActiveAttempt(_ context.Context, assessmentID, participantID string) (domain.Attempt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey{assessmentID, participantID}]
	return attempt, ok, nil
}

func (s *Store) DeleteAttempt(_ context.Context, assessmentID, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptKey{assessmentID, participantID})
	return nil
}

func (s *Store) ListExpiredAttempts(_ context.Context, cutoff time.Time) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, attempt := range s.attempts {
		if attempt.Deadline.Before(cutoff) {
			out = append(out, attempt)
		}
	}
	return out, nil
}

func (s *Store) CreateSubmissionOnce(_ context.Context, sub domain.Submission) (domain.Submission, bool, error) {
	key := attemptKey{sub.AssessmentID, sub.ParticipantID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.submissions[key]; ok {
		return existing, false, nil
	}
	s.submissions[key] = sub
	return sub, true, nil
}

func (s *Store) GetSubmission(_ context.Context, assessmentID, participantID string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[attemptKey{assessmentID, participantID}]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *Store) ListSubmissions(_ context.Context, assessmentID string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Submission
	for key, sub := range s.submissions {
		if key.assessmentID == assessmentID {
			out = append(out, sub)
		}
	}
	return out, nil
}
