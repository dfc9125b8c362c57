package app

import (
	"context"
	"errors"
	"time"

	"assessment-engine/internal/domain"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// SweepExpired force-finalizes every attempt whose deadline (plus grace) has
// passed, using the participant's last synced draft, or an all-unanswered
// sheet if nothing was synced. It funnels through the same create-once path
// as client submits, so racing a late-but-in-flight submit cannot double a
// submission. Returns the number of attempts finalized.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.grace)
	expired, err := s.attempts.ListExpiredAttempts(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	finalized := 0
	for _, attempt := range expired {
		a, err := s.assessments.GetAssessment(ctx, attempt.AssessmentID)
		if err != nil {
			// An orphaned attempt keeps the sweep from stalling on it.
			if errors.Is(err, domain.ErrAssessmentNotFound) {
				_ = s.attempts.DeleteAttempt(ctx, attempt.AssessmentID, attempt.ParticipantID)
			}
			continue
		}

		answers, ok, err := s.drafts.GetDraft(ctx, attempt.AssessmentID, attempt.ParticipantID)
		if err != nil || !ok {
			answers = nil
		}

		_, err = s.finalizeAttempt(ctx, a, attempt, answers, attempt.Deadline)
		switch {
		case err == nil:
			finalized++
			s.log.Info("attempt force-finalized",
				zap.String("assessment", attempt.AssessmentID),
				zap.String("participant", attempt.ParticipantID),
				zap.Bool("fromDraft", ok))
		case errors.Is(err, domain.ErrAlreadySubmitted):
			// Client submit won the race; the attempt is gone either way.
		default:
			s.log.Error("sweep finalize failed",
				zap.String("assessment", attempt.AssessmentID),
				zap.String("participant", attempt.ParticipantID),
				zap.Error(err))
		}
	}
	return finalized, nil
}

// Sweeper runs SweepExpired on a fixed interval in the background. This is
// the one place the engine owns real concurrency; everything else is
// request/response.
type Sweeper struct {
	svc       *Service
	scheduler *gocron.Scheduler
	interval  time.Duration
	log       *zap.Logger
}

func NewSweeper(svc *Service, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{
		svc:       svc,
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		log:       log,
	}
}

// Start begins the periodic sweep without blocking.
func (sw *Sweeper) Start() error {
	_, err := sw.scheduler.Every(sw.interval).Do(sw.run)
	if err != nil {
		return err
	}
	sw.scheduler.StartAsync()
	return nil
}

// Stop halts scheduling; an in-flight sweep finishes.
func (sw *Sweeper) Stop() {
	sw.scheduler.Stop()
}

func (sw *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sw.interval)
	defer cancel()

	n, err := sw.svc.SweepExpired(ctx)
	if err != nil {
		sw.log.Error("attempt sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		sw.log.Info("attempt sweep finalized attempts", zap.Int("count", n))
	}
}
