package app

import (
	"math"

	"assessment-engine/internal/domain"
)

// Score grades answers against the question list. A matching option index
// earns the question's marks (one if unset); unanswered or wrong earns
// nothing. Purely deterministic: same inputs, same output.
func Score(questions []domain.Question, answers []int) (score, totalMarks int) {
	for i, q := range questions {
		marks := q.Marks
		if marks == 0 {
			marks = 1
		}
		totalMarks += marks
		if i >= len(answers) {
			continue
		}
		if answers[i] == q.CorrectIndex {
			score += marks
		}
	}
	return score, totalMarks
}

// Percentage rounds 100*score/totalMarks to the nearest integer.
func Percentage(score, totalMarks int) int {
	if totalMarks <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(totalMarks)))
}

// normalizeAnswers pads or trims the answer sheet to the question count,
// mapping anything out of range to Unanswered.
func normalizeAnswers(questions []domain.Question, answers []int) []int {
	out := make([]int, len(questions))
	for i := range out {
		out[i] = domain.Unanswered
		if i < len(answers) {
			if a := answers[i]; a >= 0 && a < len(questions[i].Options) {
				out[i] = a
			}
		}
	}
	return out
}
