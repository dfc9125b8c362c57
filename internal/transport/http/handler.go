package http

import (
	"errors"
	"net/http"
	"strings"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the engine over JSON/HTTP. Participant identity arrives as
// gateway-set headers; this service trusts them, it does not authenticate.
type Handler struct {
	service    *app.Service
	adminToken string
	log        *zap.Logger
}

func NewHandler(service *app.Service, adminToken string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, adminToken: adminToken, log: log}
}

// Router wires all routes. Mode follows the server config: anything but
// debug runs gin in release mode.
func (h *Handler) Router(mode string) *gin.Engine {
	if mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	{
		api.GET("/assessments", h.withParticipant(h.listAssessments))
		api.GET("/assessments/:id", h.getAssessment)
		api.POST("/assessments/:id/attempt", h.withParticipant(h.startAttempt))
		api.PUT("/assessments/:id/attempt/progress", h.withParticipant(h.saveProgress))
		api.POST("/assessments/:id/submit", h.withParticipant(h.submitTest))
		api.POST("/assessments/:id/entries", h.withParticipant(h.submitContest))
		api.GET("/assessments/:id/submission", h.withParticipant(h.getMySubmission))
		api.GET("/assessments/:id/leaderboard", h.getLeaderboard)
	}

	admin := r.Group("/api/admin", h.requireAdmin)
	{
		admin.POST("/assessments", h.createAssessment)
		admin.POST("/assessments/:id/publish", h.publishResults)
		admin.GET("/assessments/:id/standings/watch", h.watchStandings)
	}

	return r
}

// withParticipant extracts the gateway identity headers before the handler
// runs. Requests without an identity are rejected outright.
func (h *Handler) withParticipant(fn func(*gin.Context, domain.Participant)) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := domain.Participant{
			ID:     c.GetHeader("X-Participant-Id"),
			Cohort: c.GetHeader("X-Participant-Cohort"),
			Paid:   c.GetHeader("X-Participant-Paid") == "true",
		}
		if p.ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthenticated", "message": "missing participant identity"})
			return
		}
		fn(c, p)
	}
}

func (h *Handler) requireAdmin(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if h.adminToken == "" || token != h.adminToken {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "admin_only", "message": domain.ErrAdminOnly.Error()})
	}
}

func (h *Handler) listAssessments(c *gin.Context, p domain.Participant) {
	listing, err := h.service.ListForParticipant(c.Request.Context(), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) getAssessment(c *gin.Context) {
	a, err := h.service.GetAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessmentView(a))
}

func (h *Handler) startAttempt(c *gin.Context, p domain.Participant) {
	attempt, err := h.service.StartAttempt(c.Request.Context(), c.Param("id"), p)
	if errors.Is(err, domain.ErrAttemptInProgress) {
		c.JSON(http.StatusOK, gin.H{"attempt": attempt, "resumed": true})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attempt": attempt})
}

type progressRequest struct {
	Answers []int `json:"answers"`
}

func (h *Handler) saveProgress(c *gin.Context, p domain.Participant) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid body"})
		return
	}
	if err := h.service.SaveProgress(c.Request.Context(), c.Param("id"), p.ID, req.Answers); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submitTest(c *gin.Context, p domain.Participant) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid body"})
		return
	}
	sub, err := h.service.SubmitTest(c.Request.Context(), c.Param("id"), p, req.Answers)
	h.writeSubmission(c, sub, err)
}

type contestRequest struct {
	Responses []domain.FormResponse `json:"responses"`
}

func (h *Handler) submitContest(c *gin.Context, p domain.Participant) {
	var req contestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid body"})
		return
	}
	sub, err := h.service.SubmitContest(c.Request.Context(), c.Param("id"), p, req.Responses)
	h.writeSubmission(c, sub, err)
}

// writeSubmission treats a duplicate submit as success returning the
// original record, per the retry-tolerant contract.
func (h *Handler) writeSubmission(c *gin.Context, sub domain.Submission, err error) {
	if errors.Is(err, domain.ErrAlreadySubmitted) {
		c.JSON(http.StatusOK, gin.H{"submission": sub, "alreadySubmitted": true})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"submission": sub})
}

func (h *Handler) getMySubmission(c *gin.Context, p domain.Participant) {
	sub, err := h.service.GetMySubmission(c.Request.Context(), c.Param("id"), p.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

func (h *Handler) getLeaderboard(c *gin.Context) {
	lb, err := h.service.GetLeaderboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}

func (h *Handler) createAssessment(c *gin.Context) {
	var a domain.Assessment
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid body"})
		return
	}
	created, err := h.service.CreateAssessment(c.Request.Context(), a)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) publishResults(c *gin.Context) {
	if err := h.service.PublishResults(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps the domain taxonomy onto HTTP statuses with stable codes
// the presentation layer can switch on.
func (h *Handler) writeError(c *gin.Context, err error) {
	var denied *domain.AdmissionDeniedError
	var invalid *domain.ValidationError

	switch {
	case errors.Is(err, domain.ErrAssessmentNotFound), errors.Is(err, domain.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": err.Error()})
	case errors.Is(err, domain.ErrNotYetLive):
		c.JSON(http.StatusConflict, gin.H{"code": "not_yet_live", "message": err.Error()})
	case errors.Is(err, domain.ErrClosed):
		c.JSON(http.StatusConflict, gin.H{"code": "closed", "message": err.Error()})
	case errors.Is(err, domain.ErrNotATest), errors.Is(err, domain.ErrNotAContest):
		c.JSON(http.StatusConflict, gin.H{"code": "kind_mismatch", "message": err.Error()})
	case errors.Is(err, domain.ErrNoActiveAttempt):
		c.JSON(http.StatusConflict, gin.H{"code": "no_active_attempt", "message": err.Error()})
	case errors.Is(err, domain.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"code": "already_submitted", "message": err.Error()})
	case errors.Is(err, domain.ErrNotYetPublished):
		c.JSON(http.StatusConflict, gin.H{"code": "results_pending", "message": err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"code": "invalid_state", "message": err.Error()})
	case errors.Is(err, domain.ErrAdminOnly):
		c.JSON(http.StatusForbidden, gin.H{"code": "admin_only", "message": err.Error()})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"code": "admission_denied", "reason": string(denied.Reason), "message": err.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "field": invalid.Field, "message": err.Error()})
	default:
		h.log.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "internal error"})
	}
}
