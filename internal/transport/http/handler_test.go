package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
	"assessment-engine/internal/infra/memory"

	"github.com/gin-gonic/gin"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestRouter(t *testing.T, seed ...domain.Assessment) (*gin.Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: t0}
	store := memory.NewStore()
	for _, a := range seed {
		if err := store.CreateAssessment(context.Background(), a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	svc := app.NewService(store, store, store, memory.NewDraftStore(), nil, app.WithClock(clock.now))
	return NewHandler(svc, "secret", nil).Router("release"), clock
}

func sampleTest() domain.Assessment {
	return domain.Assessment{
		ID:              "test-1",
		Kind:            domain.KindTest,
		Title:           "Quick Quiz",
		Cohorts:         []string{"grade-9"},
		LiveAt:          t0,
		ExpiresAt:       t0.Add(24 * time.Hour),
		DurationMinutes: 30,
		Questions: []domain.Question{
			{Prompt: "2+2?", Options: []string{"3", "4"}, CorrectIndex: 1, Marks: 2},
		},
	}
}

func doJSON(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asParticipant() map[string]string {
	return map[string]string{
		"X-Participant-Id":     "alice",
		"X-Participant-Cohort": "grade-9",
		"X-Participant-Paid":   "true",
	}
}

func asAdmin() map[string]string {
	return map[string]string{"Authorization": "Bearer secret"}
}

func TestStartAndSubmitFlow(t *testing.T) {
	router, _ := newTestRouter(t, sampleTest())

	w := doJSON(router, http.MethodPost, "/api/assessments/test-1/attempt", nil, asParticipant())
	if w.Code != http.StatusCreated {
		t.Fatalf("start attempt status = %d, body %s", w.Code, w.Body.String())
	}

	// Repeat start resumes the attempt with 200.
	w = doJSON(router, http.MethodPost, "/api/assessments/test-1/attempt", nil, asParticipant())
	if w.Code != http.StatusOK {
		t.Fatalf("repeat start status = %d", w.Code)
	}
	var resumed struct {
		Resumed bool `json:"resumed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resumed); err != nil || !resumed.Resumed {
		t.Fatalf("expected resumed attempt, body %s", w.Body.String())
	}

	w = doJSON(router, http.MethodPost, "/api/assessments/test-1/submit", gin.H{"answers": []int{1}}, asParticipant())
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", w.Code, w.Body.String())
	}
	var submitResp struct {
		Submission domain.Submission `json:"submission"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &submitResp); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if submitResp.Submission.Score != 2 || submitResp.Submission.Percentage != 100 {
		t.Fatalf("unexpected submission: %+v", submitResp.Submission)
	}

	// Duplicate submit returns the original with the idempotency flag.
	w = doJSON(router, http.MethodPost, "/api/assessments/test-1/submit", gin.H{"answers": []int{0}}, asParticipant())
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate submit status = %d", w.Code)
	}
	var dup struct {
		Submission       domain.Submission `json:"submission"`
		AlreadySubmitted bool              `json:"alreadySubmitted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &dup); err != nil {
		t.Fatalf("decode duplicate: %v", err)
	}
	if !dup.AlreadySubmitted || dup.Submission.ID != submitResp.Submission.ID || dup.Submission.Score != 2 {
		t.Fatalf("duplicate submit altered the record: %+v", dup)
	}
}

func TestIdentityRequired(t *testing.T) {
	router, _ := newTestRouter(t, sampleTest())
	w := doJSON(router, http.MethodPost, "/api/assessments/test-1/attempt", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAdmissionDeniedMapsTo403(t *testing.T) {
	paid := sampleTest()
	paid.IsPaid = true
	router, _ := newTestRouter(t, paid)

	headers := asParticipant()
	headers["X-Participant-Paid"] = "false"
	w := doJSON(router, http.MethodPost, "/api/assessments/test-1/attempt", nil, headers)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	var body struct {
		Code   string `json:"code"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "admission_denied" || body.Reason != string(domain.DenyPaidTierRequired) {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestContestValidationMapsTo400(t *testing.T) {
	contest := domain.Assessment{
		ID:                 "contest-1",
		Kind:               domain.KindContest,
		Title:              "Ship It",
		Cohorts:            []string{"grade-9"},
		LiveAt:             t0,
		ExpiresAt:          t0.Add(48 * time.Hour),
		SubmissionDeadline: t0.Add(24 * time.Hour),
		FormSchema:         []domain.FormField{{ID: "url", Type: domain.FieldURL, Required: true}},
	}
	router, _ := newTestRouter(t, contest)

	w := doJSON(router, http.MethodPost, "/api/assessments/contest-1/entries",
		gin.H{"responses": []gin.H{{"fieldId": "url", "value": ""}}}, asParticipant())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "validation_error" || body.Field != "url" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestLeaderboardGatingOverHTTP(t *testing.T) {
	router, clock := newTestRouter(t, sampleTest())

	w := doJSON(router, http.MethodGet, "/api/assessments/test-1/leaderboard", nil, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("pre-publish status = %d, want 409", w.Code)
	}

	// Publishing mid-window is an invalid transition.
	w = doJSON(router, http.MethodPost, "/api/admin/assessments/test-1/publish", nil, asAdmin())
	if w.Code != http.StatusConflict {
		t.Fatalf("mid-window publish status = %d, want 409", w.Code)
	}

	clock.t = t0.Add(25 * time.Hour)
	w = doJSON(router, http.MethodPost, "/api/admin/assessments/test-1/publish", nil, asAdmin())
	if w.Code != http.StatusNoContent {
		t.Fatalf("publish status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodGet, "/api/assessments/test-1/leaderboard", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("post-publish status = %d", w.Code)
	}
}

func TestAdminTokenRequired(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/admin/assessments", sampleTest(), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("no token status = %d, want 403", w.Code)
	}

	w = doJSON(router, http.MethodPost, "/api/admin/assessments", sampleTest(), asAdmin())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestGetAssessmentHidesAnswerKey(t *testing.T) {
	router, _ := newTestRouter(t, sampleTest())

	w := doJSON(router, http.MethodGet, "/api/assessments/test-1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	questions, ok := raw["questions"].([]any)
	if !ok || len(questions) != 1 {
		t.Fatalf("missing questions: %v", raw)
	}
	if _, leaked := questions[0].(map[string]any)["correctIndex"]; leaked {
		t.Fatalf("answer key leaked to clients: %v", questions[0])
	}
}
