package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"assessment-engine/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store is the authoritative persistence for assessments, attempts and
// submissions. Exactly-once submission rests on the unique index over
// (assessment_id, participant_id); the insert races, the constraint decides.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	var (
		raw       []byte
		published bool
	)
	err := s.pool.QueryRow(ctx,
		`SELECT data, results_published FROM assessments WHERE id=$1`, id,
	).Scan(&raw, &published)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("load assessment: %w", err)
	}
	return decodeAssessment(raw, published)
}

func (s *Store) ListAssessments(ctx context.Context) ([]domain.Assessment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data, results_published FROM assessments ORDER BY (data->>'liveAt')`)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assessment
	for rows.Next() {
		var (
			raw       []byte
			published bool
		)
		if err := rows.Scan(&raw, &published); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a, err := decodeAssessment(raw, published)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAssessment(ctx context.Context, a domain.Assessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (id, data, results_published) VALUES ($1, $2, $3)`,
		a.ID, data, a.ResultsPublished)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *Store) MarkResultsPublished(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE assessments SET results_published = TRUE WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("publish results: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssessmentNotFound
	}
	return nil
}

func (s *Store) TryCreateAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO attempts (assessment_id, participant_id, started_at, deadline)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (assessment_id, participant_id) DO NOTHING`,
		attempt.AssessmentID, attempt.ParticipantID, attempt.StartedAt, attempt.Deadline)
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("insert attempt: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return attempt, true, nil
	}

	existing, ok, err := s.GetActiveAttempt(ctx, attempt.AssessmentID, attempt.ParticipantID)
	if err != nil {
		return domain.Attempt{}, false, err
	}
	if !ok {
		// Lost the insert race and the winner already finalized; retry once.
		return s.TryCreateAttempt(ctx, attempt)
	}
	return existing, false, nil
}

func (s *Store) GetActiveAttempt(ctx context.Context, assessmentID, participantID string) (domain.Attempt, bool, error) {
	attempt := domain.Attempt{AssessmentID: assessmentID, ParticipantID: participantID}
	err := s.pool.QueryRow(ctx,
		`SELECT started_at, deadline FROM attempts WHERE assessment_id=$1 AND participant_id=$2`,
		assessmentID, participantID,
	).Scan(&attempt.StartedAt, &attempt.Deadline)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, false, nil
	}
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("load attempt: %w", err)
	}
	return attempt, true, nil
}

func (s *Store) DeleteAttempt(ctx context.Context, assessmentID, participantID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM attempts WHERE assessment_id=$1 AND participant_id=$2`,
		assessmentID, participantID)
	if err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	return nil
}

func (s *Store) ListExpiredAttempts(ctx context.Context, cutoff time.Time) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT assessment_id, participant_id, started_at, deadline
		 FROM attempts WHERE deadline < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.AssessmentID, &a.ParticipantID, &a.StartedAt, &a.Deadline); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateSubmissionOnce(ctx context.Context, sub domain.Submission) (domain.Submission, bool, error) {
	data, err := json.Marshal(sub)
	if err != nil {
		return domain.Submission{}, false, fmt.Errorf("marshal submission: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO submissions (id, assessment_id, participant_id, submitted_at, data)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (assessment_id, participant_id) DO NOTHING`,
		sub.ID, sub.AssessmentID, sub.ParticipantID, sub.SubmittedAt, data)
	if err != nil {
		return domain.Submission{}, false, fmt.Errorf("insert submission: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return sub, true, nil
	}

	existing, err := s.GetSubmission(ctx, sub.AssessmentID, sub.ParticipantID)
	if err != nil {
		return domain.Submission{}, false, err
	}
	return existing, false, nil
}

func (s *Store) GetSubmission(ctx context.Context, assessmentID, participantID string) (domain.Submission, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM submissions WHERE assessment_id=$1 AND participant_id=$2`,
		assessmentID, participantID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	var sub domain.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	return sub, nil
}

func (s *Store) ListSubmissions(ctx context.Context, assessmentID string) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM submissions WHERE assessment_id=$1 ORDER BY submitted_at`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		var sub domain.Submission
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, fmt.Errorf("unmarshal submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func decodeAssessment(raw []byte, published bool) (domain.Assessment, error) {
	var a domain.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.Assessment{}, fmt.Errorf("unmarshal assessment: %w", err)
	}
	// The column is authoritative; the blob is written once at creation.
	a.ResultsPublished = published
	return a, nil
}
