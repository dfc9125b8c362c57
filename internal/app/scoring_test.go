package app_test

import (
	"testing"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
)

func TestScoreDeterministic(t *testing.T) {
	questions := sampleTest().Questions
	answers := []int{1, 0, 1}

	s1, t1 := app.Score(questions, answers)
	s2, t2 := app.Score(questions, answers)
	if s1 != s2 || t1 != t2 {
		t.Fatalf("score not deterministic: (%d,%d) vs (%d,%d)", s1, t1, s2, t2)
	}
	if s1 != 6 || t1 != 6 {
		t.Fatalf("all-correct score = %d/%d, want 6/6", s1, t1)
	}
	if app.Percentage(s1, t1) != 100 {
		t.Fatalf("all-correct percentage = %d, want 100", app.Percentage(s1, t1))
	}
}

func TestScorePartialAndUnanswered(t *testing.T) {
	questions := sampleTest().Questions

	cases := []struct {
		name    string
		answers []int
		score   int
	}{
		{"all wrong", []int{0, 1, 0}, 0},
		{"one right", []int{1, 1, 0}, 2},
		{"unanswered tail", []int{1}, 2},
		{"unanswered sentinel", []int{domain.Unanswered, 0, domain.Unanswered}, 2},
		{"empty sheet", nil, 0},
	}
	for _, tc := range cases {
		score, total := app.Score(questions, tc.answers)
		if score != tc.score || total != 6 {
			t.Errorf("%s: score = %d/%d, want %d/6", tc.name, score, total, tc.score)
		}
	}
}

func TestPercentageRounding(t *testing.T) {
	cases := []struct {
		score, total, want int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{0, 3, 0},
		{3, 3, 100},
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := app.Percentage(tc.score, tc.total); got != tc.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tc.score, tc.total, got, tc.want)
		}
	}
}

func TestScoreDefaultsZeroMarksToOne(t *testing.T) {
	questions := []domain.Question{
		{Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: 0},
	}
	score, total := app.Score(questions, []int{0})
	if score != 1 || total != 1 {
		t.Fatalf("zero-marks question scored %d/%d, want 1/1", score, total)
	}
}
