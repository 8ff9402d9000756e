package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListTraces handles GET /api/traces?user_id=&limit=.
func (s *Server) ListTraces(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	traces, err := s.traces.RecentTraces(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	c.JSON(http.StatusOK, traces)
}

// GetTraceSteps handles GET /api/traces/:id/steps.
func (s *Server) GetTraceSteps(c *gin.Context) {
	steps, err := s.traces.TraceSteps(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	c.JSON(http.StatusOK, steps)
}

// TraceFeedbackRequest is the body of POST /api/traces/:id/feedback.
type TraceFeedbackRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Feedback string `json:"feedback" binding:"required"`
}

// SetTraceFeedback handles POST /api/traces/:id/feedback: records whether
// the user found the run helpful, closing the learning loop.
func (s *Server) SetTraceFeedback(c *gin.Context) {
	var req TraceFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.traces.SetTraceFeedback(c.Request.Context(), c.Param("id"), req.UserID, req.Feedback)
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// ListMemories handles GET /api/memories?user_id=&category=&limit=.
func (s *Server) ListMemories(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	memories, err := s.memories.ListMemories(c.Request.Context(), userID, c.Query("category"), limit)
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	c.JSON(http.StatusOK, memories)
}

// GetNegotiation handles GET /api/negotiations/:id: the session with all
// debate rounds.
func (s *Server) GetNegotiation(c *gin.Context) {
	ctx := c.Request.Context()
	session, err := s.negotiations.GetSession(ctx, c.Param("id"))
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	rounds, err := s.negotiations.SessionRounds(ctx, c.Param("id"))
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "rounds": rounds})
}
