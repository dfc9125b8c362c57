package http

import (
	"time"

	"assessment-engine/internal/domain"
)

// questionView strips the answer key before a question leaves the engine.
type questionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Marks   int      `json:"marks"`
}

type assessmentDetail struct {
	ID          string      `json:"id"`
	Kind        domain.Kind `json:"kind"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Cohorts     []string    `json:"cohorts"`
	IsPaid      bool        `json:"isPaid"`

	LiveAt    time.Time `json:"liveAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	DurationMinutes int            `json:"durationMinutes,omitempty"`
	Questions       []questionView `json:"questions,omitempty"`

	SubmissionDeadline *time.Time         `json:"submissionDeadline,omitempty"`
	FormSchema         []domain.FormField `json:"formSchema,omitempty"`

	Rewards          []domain.RewardTier `json:"rewards,omitempty"`
	ResultsPublished bool                `json:"resultsPublished"`
}

func assessmentView(a domain.Assessment) assessmentDetail {
	detail := assessmentDetail{
		ID:               a.ID,
		Kind:             a.Kind,
		Title:            a.Title,
		Description:      a.Description,
		Cohorts:          a.Cohorts,
		IsPaid:           a.IsPaid,
		LiveAt:           a.LiveAt,
		ExpiresAt:        a.ExpiresAt,
		DurationMinutes:  a.DurationMinutes,
		FormSchema:       a.FormSchema,
		Rewards:          a.Rewards,
		ResultsPublished: a.ResultsPublished,
	}
	for _, q := range a.Questions {
		marks := q.Marks
		if marks == 0 {
			marks = 1
		}
		detail.Questions = append(detail.Questions, questionView{
			Prompt:  q.Prompt,
			Options: q.Options,
			Marks:   marks,
		})
	}
	if !a.SubmissionDeadline.IsZero() {
		deadline := a.SubmissionDeadline
		detail.SubmissionDeadline = &deadline
	}
	return detail
}
