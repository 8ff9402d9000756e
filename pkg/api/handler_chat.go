package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kazi-ai/kazi/pkg/events"
	"github.com/kazi-ai/kazi/pkg/llm"
	"github.com/kazi-ai/kazi/pkg/models"
	"github.com/kazi-ai/kazi/pkg/orchestrator"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
}

const generalChatPrompt = `You are KaziAI, a friendly career assistant. You help with job search, resume analysis, application materials and interview prep. Answer conversationally and concisely. When the user needs specialized work done, tell them what you can do: search jobs, analyze a job description against their resume, write a cover letter, or prep them for an interview.`

// Chat handles POST /api/chat: routes the message, runs the agent pipeline
// and streams dispatch events over SSE.
func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	dispatchID := s.dispatches.Register(cancel)
	defer s.dispatches.Remove(dispatchID)

	profile, err := s.users.Profile(ctx, req.UserID)
	if err != nil {
		s.logger.Warn("failed to load profile", "user_id", req.UserID, "error", err)
	}
	resumeText, err := s.users.ResumeText(ctx, req.UserID)
	if err != nil {
		s.logger.Warn("failed to load resume", "user_id", req.UserID, "error", err)
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID, err = s.users.CreateConversation(ctx, req.UserID, truncate(req.Message, 60))
		if err != nil {
			s.logger.Warn("failed to create conversation", "user_id", req.UserID, "error", err)
		}
	}
	if conversationID != "" {
		if _, err := s.users.AddChatMessage(ctx, conversationID, "user", req.Message); err != nil {
			s.logger.Warn("failed to save chat message", "error", err)
		}
	}

	decision := s.router.Route(ctx, req.Message, resumeText != "", profile != nil)

	sseHeaders(c)
	writeSSE(c, "dispatch", gin.H{"dispatch_id": dispatchID, "conversation_id": conversationID})
	writeSSE(c, string(events.TypeRouting), events.RoutingPayload{
		Intent:    decision.Intent,
		Agents:    decision.Agents,
		Reasoning: decision.Reasoning,
	})

	if len(decision.Agents) == 0 {
		reply := s.generalChat(ctx, req.Message, profile)
		writeSSE(c, string(events.TypeContent), events.ContentPayload{Delta: reply})
		s.saveAssistantReply(ctx, conversationID, reply)
		writeSSE(c, string(events.TypeDone), nil)
		return
	}

	sink := events.NewChannelSink(64)
	outcomeCh := make(chan *orchestrator.Outcome, 1)
	go func() {
		defer sink.Close()
		outcomeCh <- s.orchestrator.Dispatch(ctx, orchestrator.Request{
			UserID:         req.UserID,
			ConversationID: conversationID,
			Message:        req.Message,
			Profile:        profile,
			ResumeText:     resumeText,
			Decision:       decision,
		}, sink)
	}()

	for ev := range sink.C {
		writeSSE(c, string(ev.Type), ev.Payload)
	}
	outcome := <-outcomeCh

	final := finalText(outcome)
	if final != "" {
		writeSSE(c, string(events.TypeContent), events.ContentPayload{Delta: final})
		s.saveAssistantReply(ctx, conversationID, final)
	}
	writeSSE(c, string(events.TypeDone), nil)
}

// CancelDispatch handles POST /api/dispatches/:id/cancel.
func (s *Server) CancelDispatch(c *gin.Context) {
	id := c.Param("id")
	if !s.dispatches.Cancel(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "dispatch not found"})
		return
	}
	s.logger.Info("dispatch cancelled", "dispatch_id", id)
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// generalChat answers a message that needs no specialized agent.
func (s *Server) generalChat(ctx context.Context, message string, profile *models.Profile) string {
	system := generalChatPrompt
	if summary := profile.PromptSummary(); summary != "" {
		system += "\n\nWhat you know about the user:\n" + summary
	}
	resp, err := s.llm.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: message},
		},
		MaxTokens:   600,
		Temperature: 0.7,
	})
	if err != nil {
		s.logger.Warn("general chat call failed", "error", err)
		return "Sorry, I couldn't process that right now. Please try again."
	}
	return resp.Content
}

func (s *Server) saveAssistantReply(ctx context.Context, conversationID, reply string) {
	if conversationID == "" || reply == "" {
		return
	}
	if _, err := s.users.AddChatMessage(ctx, conversationID, "assistant", reply); err != nil {
		s.logger.Warn("failed to save assistant reply", "error", err)
	}
}

// finalText picks the dispatch's user-facing answer: the consensus position
// when a debate resolved one, otherwise the last successful agent output.
func finalText(outcome *orchestrator.Outcome) string {
	if outcome == nil {
		return ""
	}
	if outcome.Consensus != nil && outcome.Consensus.Position != "" {
		return outcome.Consensus.Position
	}
	for i := len(outcome.Runs) - 1; i >= 0; i-- {
		run := outcome.Runs[i]
		if run.Result != nil && run.Result.Output != "" {
			return run.Result.Output
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
