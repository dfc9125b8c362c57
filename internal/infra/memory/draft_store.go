package memory

import (
	"context"
	"sync"
)

// DraftStore keeps synced answer sheets in process memory. The Redis-backed
// store is preferred in deployments so drafts survive restarts.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[attemptKey][]int
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[attemptKey][]int)}
}

func (s *DraftStore) SaveDraft(_ context.Context, assessmentID, participantID string, answers []int) error {
	copied := make([]int, len(answers))
	copy(copied, answers)
	s.mu.Lock()
	s.drafts[attemptKey{assessmentID, participantID}] = copied
	s.mu.Unlock()
	return nil
}

func (s *DraftStore) GetDraft(_ context.Context, assessmentID, participantID string) ([]int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answers, ok := s.drafts[attemptKey{assessmentID, participantID}]
	return answers, ok, nil
}

func (s *DraftStore) DeleteDraft(_ context.Context, assessmentID, participantID string) error {
	s.mu.Lock()
	delete(s.drafts, attemptKey{assessmentID, participantID})
	s.mu.Unlock()
	return nil
}
