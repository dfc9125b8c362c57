package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"assessment-engine/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssessmentRepository stores assessment records. Creation comes from the
// admin surface; everything else treats records as read-only apart from the
// publish flag.
type AssessmentRepository interface {
	GetAssessment(ctx context.Context, id string) (domain.Assessment, error)
	ListAssessments(ctx context.Context) ([]domain.Assessment, error)
	CreateAssessment(ctx context.Context, a domain.Assessment) error
	MarkResultsPublished(ctx context.Context, id string) error
}

// AttemptStore tracks in-progress test attempts.
type AttemptStore interface {
	// TryCreateAttempt inserts the attempt unless one already exists for the
	// same (assessment, participant); the stored attempt and a created flag
	// are returned either way.
	TryCreateAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error)
	GetActiveAttempt(ctx context.Context, assessmentID, participantID string) (domain.Attempt, bool, error)
	DeleteAttempt(ctx context.Context, assessmentID, participantID string) error
	// ListExpiredAttempts returns attempts whose deadline passed before cutoff.
	ListExpiredAttempts(ctx context.Context, cutoff time.Time) ([]domain.Attempt, error)
}

// SubmissionStore persists finalized submissions. CreateSubmissionOnce must
// be atomic at the storage layer: under concurrent calls for the same
// (assessment, participant) exactly one row wins and both callers observe it.
type SubmissionStore interface {
	CreateSubmissionOnce(ctx context.Context, sub domain.Submission) (domain.Submission, bool, error)
	GetSubmission(ctx context.Context, assessmentID, participantID string) (domain.Submission, error)
	ListSubmissions(ctx context.Context, assessmentID string) ([]domain.Submission, error)
}

// DraftStore keeps the last answers a client synced for an active attempt,
// so the expiry sweep can finalize with something better than all-unanswered.
type DraftStore interface {
	SaveDraft(ctx context.Context, assessmentID, participantID string, answers []int) error
	GetDraft(ctx context.Context, assessmentID, participantID string) ([]int, bool, error)
	DeleteDraft(ctx context.Context, assessmentID, participantID string) error
}

// TieBreak orders two entries that have equal scores. The default prefers
// the earlier submission; swap it via WithTieBreak.
type TieBreak func(a, b domain.LeaderboardEntry) bool

// EarliestSubmissionWins is the default tie-break: earlier submittedAt ranks
// higher, participant ID as the final stable key.
func EarliestSubmissionWins(a, b domain.LeaderboardEntry) bool {
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.ParticipantID < b.ParticipantID
}

// Service is the assessment lifecycle engine: admission, temporal gating,
// exactly-once submission, scoring and standings.
type Service struct {
	assessments AssessmentRepository
	attempts    AttemptStore
	submissions SubmissionStore
	drafts      DraftStore
	standings   *StandingsHub
	log         *zap.Logger

	now      func() time.Time
	grace    time.Duration
	tieBreak TieBreak
	newID    func() string
}

// Option tweaks service construction.
type Option func(*Service)

// WithClock injects the time source; tests use it to walk the lifecycle.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGrace sets the late-submit tolerance past an attempt deadline.
func WithGrace(d time.Duration) Option {
	return func(s *Service) { s.grace = d }
}

// WithTieBreak swaps the equal-score ordering policy.
func WithTieBreak(tb TieBreak) Option {
	return func(s *Service) { s.tieBreak = tb }
}

// DefaultGrace tolerates clock skew and in-flight submits right at the
// attempt deadline.
const DefaultGrace = 30 * time.Second

func NewService(assessments AssessmentRepository, attempts AttemptStore, submissions SubmissionStore, drafts DraftStore, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		assessments: assessments,
		attempts:    attempts,
		submissions: submissions,
		drafts:      drafts,
		standings:   NewStandingsHub(),
		log:         log,
		now:         time.Now,
		grace:       DefaultGrace,
		tieBreak:    EarliestSubmissionWins,
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListForParticipant buckets every assessment by lifecycle state for one
// participant. Denied assessments stay visible but locked.
func (s *Service) ListForParticipant(ctx context.Context, p domain.Participant) (domain.AssessmentListing, error) {
	all, err := s.assessments.ListAssessments(ctx)
	if err != nil {
		return domain.AssessmentListing{}, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LiveAt.Before(all[j].LiveAt) })

	now := s.now()
	var listing domain.AssessmentListing
	for _, a := range all {
		summary := domain.AssessmentSummary{
			ID:        a.ID,
			Kind:      a.Kind,
			Title:     a.Title,
			IsPaid:    a.IsPaid,
			LiveAt:    a.LiveAt,
			ExpiresAt: a.ExpiresAt,
			Rewards:   a.Rewards,
		}
		if err := Evaluate(a, p); err != nil {
			summary.Locked = true
			var denied *domain.AdmissionDeniedError
			if errors.As(err, &denied) {
				summary.LockReason = string(denied.Reason)
			}
		}
		switch a.StateAt(now) {
		case domain.StateScheduled:
			listing.Scheduled = append(listing.Scheduled, summary)
		case domain.StateOpen:
			listing.Open = append(listing.Open, summary)
		case domain.StateClosed:
			listing.Closed = append(listing.Closed, summary)
		case domain.StateFinalized:
			listing.Finalized = append(listing.Finalized, summary)
		}
	}
	return listing, nil
}

// GetAssessment returns the full record.
func (s *Service) GetAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	return s.assessments.GetAssessment(ctx, id)
}

// GetMySubmission returns the participant's finalized submission, if any.
func (s *Service) GetMySubmission(ctx context.Context, assessmentID, participantID string) (domain.Submission, error) {
	if _, err := s.assessments.GetAssessment(ctx, assessmentID); err != nil {
		return domain.Submission{}, err
	}
	return s.submissions.GetSubmission(ctx, assessmentID, participantID)
}

// CreateAssessment validates invariants and stores a new record. An empty ID
// gets a generated one.
func (s *Service) CreateAssessment(ctx context.Context, a domain.Assessment) (domain.Assessment, error) {
	if a.ID == "" {
		a.ID = s.newID()
	}
	a.ResultsPublished = false
	if err := a.Validate(); err != nil {
		return domain.Assessment{}, err
	}
	if err := s.assessments.CreateAssessment(ctx, a); err != nil {
		return domain.Assessment{}, err
	}
	s.log.Info("assessment created",
		zap.String("assessment", a.ID),
		zap.String("kind", string(a.Kind)),
		zap.Time("liveAt", a.LiveAt),
		zap.Time("expiresAt", a.ExpiresAt))
	return a, nil
}

// PublishResults flips the publish flag. Allowed only from Closed; the
// transition is explicit, admin-driven and irreversible.
func (s *Service) PublishResults(ctx context.Context, id string) error {
	a, err := s.assessments.GetAssessment(ctx, id)
	if err != nil {
		return err
	}
	switch a.StateAt(s.now()) {
	case domain.StateClosed:
	case domain.StateFinalized:
		// Publishing twice is a no-op.
		return nil
	default:
		return domain.ErrInvalidState
	}
	if err := s.assessments.MarkResultsPublished(ctx, id); err != nil {
		return err
	}
	s.log.Info("results published", zap.String("assessment", id))
	return nil
}
