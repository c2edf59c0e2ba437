package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"moodcheck/internal/domain"
	"moodcheck/internal/service"
)

// ConversationHandler expone el controlador de conversacion como API JSON.
type ConversationHandler struct {
	logger *zap.Logger
	svc    *service.ConversationService
}

func NewConversationHandler(logger *zap.Logger, svc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{logger: logger, svc: svc}
}

type sessionResponse struct {
	Session         domain.Session     `json:"session"`
	Affordances     domain.Affordances `json:"affordances"`
	PendingQuestion string             `json:"pending_question,omitempty"`
}

func newSessionResponse(s domain.Session) sessionResponse {
	q, _ := s.PendingQuestion()
	return sessionResponse{Session: s, Affordances: s.Affordances(), PendingQuestion: q}
}

// CreateSession maneja POST /sessions.
func (h *ConversationHandler) CreateSession(c *gin.Context) {
	session, err := h.svc.Create(c.Request.Context())
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(session))
}

// GetSession maneja GET /sessions/:id.
func (h *ConversationHandler) GetSession(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get session failed", err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// Analyze maneja POST /sessions/:id/analyze.
func (h *ConversationHandler) Analyze(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid analyze request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	session, err := h.svc.StartAnalysis(c.Request.Context(), c.Param("id"), req.Username)
	if err != nil {
		h.fail(c, "analyze failed", err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// Answer maneja POST /sessions/:id/answers.
func (h *ConversationHandler) Answer(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid answer request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	session, err := h.svc.SubmitAnswer(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		h.fail(c, "answer failed", err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// RetrySubmission maneja POST /sessions/:id/submission/retry.
func (h *ConversationHandler) RetrySubmission(c *gin.Context) {
	session, err := h.svc.RetrySubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "retry submission failed", err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// DeleteSession maneja DELETE /sessions/:id.
func (h *ConversationHandler) DeleteSession(c *gin.Context) {
	if err := h.svc.Discard(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "delete session failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) fail(c *gin.Context, msg string, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	h.logger.Error(msg, zap.String("session_id", c.Param("id")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
