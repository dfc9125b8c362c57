package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftStore keeps synced answer sheets in Redis so the expiry sweep can
// recover a participant's progress even across engine restarts. Entries are
// stored as: SET attempt:{assessmentID}:{participantID}:draft {json} EX ttl
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func (s *DraftStore) SaveDraft(ctx context.Context, assessmentID, participantID string, answers []int) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := s.client.Set(ctx, s.key(assessmentID, participantID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *DraftStore) GetDraft(ctx context.Context, assessmentID, participantID string) ([]int, bool, error) {
	raw, err := s.client.Get(ctx, s.key(assessmentID, participantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get draft: %w", err)
	}
	var answers []int
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, false, fmt.Errorf("unmarshal draft: %w", err)
	}
	return answers, true, nil
}

func (s *DraftStore) DeleteDraft(ctx context.Context, assessmentID, participantID string) error {
	return s.client.Del(ctx, s.key(assessmentID, participantID)).Err()
}

func (s *DraftStore) key(assessmentID, participantID string) string {
	return "attempt:" + assessmentID + ":" + participantID + ":draft"
}
