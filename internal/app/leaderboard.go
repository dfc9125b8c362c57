package app

import (
	"context"
	"sort"

	"assessment-engine/internal/domain"
)

// GetLeaderboard builds the published standings for an assessment. Until the
// administrator publishes, callers get ErrNotYetPublished no matter how many
// submissions exist.
func (s *Service) GetLeaderboard(ctx context.Context, assessmentID string) (domain.Leaderboard, error) {
	a, err := s.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if !a.ResultsPublished {
		return domain.Leaderboard{}, domain.ErrNotYetPublished
	}
	return s.buildLeaderboard(ctx, assessmentID)
}

// buildLeaderboard ranks all submissions by score descending; equal scores
// fall to the configured tie-break. Ranks are dense 1..N by position.
func (s *Service) buildLeaderboard(ctx context.Context, assessmentID string) (domain.Leaderboard, error) {
	subs, err := s.submissions.ListSubmissions(ctx, assessmentID)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: sub.ParticipantID,
			Score:         sub.Score,
			Percentage:    sub.Percentage,
			SubmittedAt:   sub.SubmittedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return s.tieBreak(entries[i], entries[j])
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return domain.Leaderboard{
		AssessmentID: assessmentID,
		Entries:      entries,
		GeneratedAt:  s.now(),
	}, nil
}
