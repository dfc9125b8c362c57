package app

import (
	"context"
	"sync"

	"assessment-engine/internal/domain"

	"go.uber.org/zap"
)

// StandingsHub fans pre-publish standings snapshots out to admin watchers.
// Participants never see these; the public leaderboard stays publish-gated.
type StandingsHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Leaderboard]struct{}
}

func NewStandingsHub() *StandingsHub {
	return &StandingsHub{
		subscribers: make(map[string]map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe registers a watcher for one assessment, seeding it with the
// initial snapshot. The caller must invoke the returned cancel function to
// avoid leaks.
func (h *StandingsHub) Subscribe(assessmentID string, initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	h.mu.Lock()
	if h.subscribers[assessmentID] == nil {
		h.subscribers[assessmentID] = make(map[chan domain.Leaderboard]struct{})
	}
	h.subscribers[assessmentID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[assessmentID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, assessmentID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *StandingsHub) broadcast(assessmentID string, lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[assessmentID] {
		select {
		case ch <- lb:
		default:
			// A slow watcher drops its stale snapshot for the fresh one.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func (h *StandingsHub) hasWatchers(assessmentID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[assessmentID]) > 0
}

// WatchStandings subscribes an admin to live standings for an assessment and
// sends an initial snapshot.
func (s *Service) WatchStandings(ctx context.Context, assessmentID string) (<-chan domain.Leaderboard, func(), error) {
	if _, err := s.assessments.GetAssessment(ctx, assessmentID); err != nil {
		return nil, nil, err
	}
	lb, err := s.buildLeaderboard(ctx, assessmentID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.standings.Subscribe(assessmentID, lb)
	return ch, cancel, nil
}

// broadcastStandings recomputes and pushes standings after an accepted
// submission. Skipped when nobody is watching.
func (s *Service) broadcastStandings(ctx context.Context, assessmentID string) {
	if !s.standings.hasWatchers(assessmentID) {
		return
	}
	lb, err := s.buildLeaderboard(ctx, assessmentID)
	if err != nil {
		s.log.Warn("standings rebuild failed", zap.String("assessment", assessmentID), zap.Error(err))
		return
	}
	s.standings.broadcast(assessmentID, lb)
}
