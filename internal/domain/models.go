package domain

import "time"

// Kind distinguishes the two assessment flavors sharing one record shape.
type Kind string

const (
	KindTest    Kind = "test"
	KindContest Kind = "contest"
)

// State is where an assessment sits in its lifecycle at a given instant.
type State string

const (
	StateScheduled State = "scheduled"
	StateOpen      State = "open"
	StateClosed    State = "closed"
	StateFinalized State = "finalized"
)

// Question models an MCQ question with a single correct option index.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Marks        int      `json:"marks"` // defaults to 1 if zero
}

// RewardTier maps a leaderboard rank to a prize.
type RewardTier struct {
	Rank  int    `json:"rank"`
	Title string `json:"title"`
	Prize string `json:"prize"`
}

// Assessment is a scheduled Test or Contest. Records are immutable once
// created except for ResultsPublished, which an administrator flips
// exactly once after the window closes.
type Assessment struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Cohorts     []string `json:"cohorts"`
	IsPaid      bool     `json:"isPaid"`

	LiveAt    time.Time `json:"liveAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	// Test only.
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	Questions       []Question `json:"questions,omitempty"`

	// Contest only.
	SubmissionDeadline time.Time   `json:"submissionDeadline,omitempty"`
	FormSchema         []FormField `json:"formSchema,omitempty"`

	Rewards          []RewardTier `json:"rewards,omitempty"`
	ResultsPublished bool         `json:"resultsPublished"`
}

// StateAt derives the lifecycle state purely from now versus the window,
// plus the publish flag. At now == LiveAt the assessment is already open.
func (a Assessment) StateAt(now time.Time) State {
	if now.Before(a.LiveAt) {
		return StateScheduled
	}
	if now.Before(a.ExpiresAt) {
		return StateOpen
	}
	if a.ResultsPublished {
		return StateFinalized
	}
	return StateClosed
}

// HasCohort reports whether the cohort is in the assessment's eligible set.
func (a Assessment) HasCohort(cohort string) bool {
	for _, c := range a.Cohorts {
		if c == cohort {
			return true
		}
	}
	return false
}

// TotalMarks sums question marks, treating zero marks as one.
func (a Assessment) TotalMarks() int {
	total := 0
	for _, q := range a.Questions {
		if q.Marks > 0 {
			total += q.Marks
		} else {
			total++
		}
	}
	return total
}

// Validate checks the creation invariants. Nothing here is time-dependent;
// an assessment may legitimately be created already open.
func (a Assessment) Validate() error {
	if a.ID == "" {
		return &ValidationError{Field: "id", Message: "must not be empty"}
	}
	if a.Kind != KindTest && a.Kind != KindContest {
		return &ValidationError{Field: "kind", Message: "must be test or contest"}
	}
	if a.Title == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if len(a.Cohorts) == 0 {
		return &ValidationError{Field: "cohorts", Message: "must name at least one cohort"}
	}
	if !a.LiveAt.Before(a.ExpiresAt) {
		return &ValidationError{Field: "liveAt", Message: "must precede expiresAt"}
	}
	switch a.Kind {
	case KindTest:
		if a.DurationMinutes <= 0 {
			return &ValidationError{Field: "durationMinutes", Message: "must be positive"}
		}
		if len(a.Questions) == 0 {
			return &ValidationError{Field: "questions", Message: "must not be empty"}
		}
		for _, q := range a.Questions {
			if len(q.Options) == 0 {
				return &ValidationError{Field: "questions", Message: "question has no options"}
			}
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				return &ValidationError{Field: "questions", Message: "correct index out of range"}
			}
		}
	case KindContest:
		if a.SubmissionDeadline.IsZero() || a.SubmissionDeadline.After(a.ExpiresAt) {
			return &ValidationError{Field: "submissionDeadline", Message: "must be set and not exceed expiresAt"}
		}
		if len(a.FormSchema) == 0 {
			return &ValidationError{Field: "formSchema", Message: "must not be empty"}
		}
		for _, f := range a.FormSchema {
			if err := f.ValidateSchema(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Participant is the identity the external provider vouches for.
type Participant struct {
	ID     string `json:"id"`
	Cohort string `json:"cohort"`
	Paid   bool   `json:"paid"`
}

// Unanswered marks a question the participant never answered.
const Unanswered = -1

// Attempt is an in-progress test session with a server-enforced deadline.
// At most one exists per (assessment, participant); it ends in a Submission,
// either client-driven or forced by the expiry sweep.
type Attempt struct {
	AssessmentID  string    `json:"assessmentId"`
	ParticipantID string    `json:"participantId"`
	StartedAt     time.Time `json:"startedAt"`
	Deadline      time.Time `json:"deadline"`
}

// FormResponse is one answered contest form field.
type FormResponse struct {
	FieldID string `json:"fieldId"`
	Value   string `json:"value"`
}

// Submission is the single finalized record per (assessment, participant).
// It is never mutated or deleted once stored.
type Submission struct {
	ID               string    `json:"id"`
	AssessmentID     string    `json:"assessmentId"`
	ParticipantID    string    `json:"participantId"`
	SubmittedAt      time.Time `json:"submittedAt"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`

	// Test only. One option index per question, Unanswered where skipped.
	Answers    []int `json:"answers,omitempty"`
	Score      int   `json:"score"`
	TotalMarks int   `json:"totalMarks"`
	Percentage int   `json:"percentage"`

	// Contest only.
	FormResponses []FormResponse `json:"formResponses,omitempty"`
}

// LeaderboardEntry is one ranked row derived from a submission.
type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	ParticipantID string    `json:"participantId"`
	Score         int       `json:"score"`
	Percentage    int       `json:"percentage"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// Leaderboard is the ordered standings for one assessment. It has no storage
// lifecycle of its own; it is recomputed from submissions on demand.
type Leaderboard struct {
	AssessmentID string             `json:"assessmentId"`
	Entries      []LeaderboardEntry `json:"entries"`
	GeneratedAt  time.Time          `json:"generatedAt"`
}

// AssessmentSummary is the listing view of an assessment for one participant.
type AssessmentSummary struct {
	ID        string       `json:"id"`
	Kind      Kind         `json:"kind"`
	Title     string       `json:"title"`
	IsPaid    bool         `json:"isPaid"`
	LiveAt    time.Time    `json:"liveAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Rewards   []RewardTier `json:"rewards,omitempty"`

	// Locked means admission denied; the assessment stays visible so the
	// UI can explain why (upsell, wrong cohort).
	Locked     bool   `json:"locked"`
	LockReason string `json:"lockReason,omitempty"`
}

// AssessmentListing buckets summaries by lifecycle state.
type AssessmentListing struct {
	Scheduled []AssessmentSummary `json:"scheduled"`
	Open      []AssessmentSummary `json:"open"`
	Closed    []AssessmentSummary `json:"closed"`
	Finalized []AssessmentSummary `json:"finalized"`
}
