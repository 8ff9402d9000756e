package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kazi-ai/kazi/pkg/events"
	"github.com/kazi-ai/kazi/pkg/planner"
)

// CreateGoalRequest is the body of POST /api/goals.
type CreateGoalRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	GoalText string `json:"goal_text" binding:"required"`
}

// CreateGoal handles POST /api/goals: decomposes the goal into agent steps
// and persists the plan.
func (s *Server) CreateGoal(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userContext := ""
	if profile, err := s.users.Profile(ctx, req.UserID); err == nil {
		userContext = profile.PromptSummary()
	}

	plan := s.planner.CreatePlan(ctx, req.GoalText, userContext)
	goalID, err := s.planner.SavePlan(ctx, req.UserID, plan)
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal_id": goalID, "title": plan.Title, "steps": plan.Steps})
}

// ListGoals handles GET /api/goals?user_id=&status=.
func (s *Server) ListGoals(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	goals, err := s.goals.ListGoals(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	c.JSON(http.StatusOK, goals)
}

// GetGoal handles GET /api/goals/:id?user_id=.
func (s *Server) GetGoal(c *gin.Context) {
	status, err := s.planner.PlanStatus(c.Request.Context(), c.Param("id"), c.Query("user_id"))
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// ExecuteGoalStepRequest is the body of POST /api/goals/:id/execute.
type ExecuteGoalStepRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ExecuteGoalStep handles POST /api/goals/:id/execute: runs the next
// pending step and returns its result.
func (s *Server) ExecuteGoalStep(c *gin.Context) {
	var req ExecuteGoalStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	result, err := s.planner.ExecuteNextStep(ctx, c.Param("id"), req.UserID, s.userContext(ctx, req.UserID))
	if err != nil {
		c.JSON(mapServiceError(err))
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"message": "no pending steps"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// AutoExecuteGoalRequest is the body of POST /api/goals/:id/auto_execute.
type AutoExecuteGoalRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// AutoExecuteGoal handles POST /api/goals/:id/auto_execute: runs all
// remaining steps, streaming progress events over SSE.
func (s *Server) AutoExecuteGoal(c *gin.Context) {
	var req AutoExecuteGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	dispatchID := s.dispatches.Register(cancel)
	defer s.dispatches.Remove(dispatchID)

	sseHeaders(c)
	writeSSE(c, "dispatch", gin.H{"dispatch_id": dispatchID})

	sink := events.NewChannelSink(64)
	go func() {
		defer sink.Close()
		s.planner.AutoExecute(ctx, c.Param("id"), req.UserID, s.userContext(ctx, req.UserID), sink)
	}()

	for ev := range sink.C {
		writeSSE(c, string(ev.Type), ev.Payload)
	}
}

func (s *Server) userContext(ctx context.Context, userID string) planner.UserContext {
	uc := planner.UserContext{}
	if profile, err := s.users.Profile(ctx, userID); err == nil {
		uc.Profile = profile
	} else {
		s.logger.Warn("failed to load profile", "user_id", userID, "error", err)
	}
	if resume, err := s.users.ResumeText(ctx, userID); err == nil {
		uc.ResumeText = resume
	} else {
		s.logger.Warn("failed to load resume", "user_id", userID, "error", err)
	}
	return uc
}
