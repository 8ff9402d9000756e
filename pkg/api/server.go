// Package api exposes the orchestration core over HTTP: chat dispatch with
// SSE streaming, goal planning and auto-execution, trace inspection and
// dispatch cancellation.
package api

import (
	"database/sql"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/kazi-ai/kazi/pkg/llm"
	"github.com/kazi-ai/kazi/pkg/orchestrator"
	"github.com/kazi-ai/kazi/pkg/planner"
	"github.com/kazi-ai/kazi/pkg/router"
	"github.com/kazi-ai/kazi/pkg/services"
)

// Server wires the HTTP handlers to the orchestration core.
type Server struct {
	llm          llm.Client
	router       *router.Router
	orchestrator *orchestrator.Orchestrator
	planner      *planner.Planner
	traces       *services.TraceService
	memories     *services.MemoryService
	goals        *services.GoalService
	negotiations *services.NegotiationService
	users        *services.UserService
	db           *sql.DB
	dispatches   *dispatchRegistry
	logger       *slog.Logger
}

// Deps carries the server's collaborators.
type Deps struct {
	LLM          llm.Client
	Router       *router.Router
	Orchestrator *orchestrator.Orchestrator
	Planner      *planner.Planner
	Traces       *services.TraceService
	Memories     *services.MemoryService
	Goals        *services.GoalService
	Negotiations *services.NegotiationService
	Users        *services.UserService
	DB           *sql.DB
	Logger       *slog.Logger
}

// NewServer creates a new API server.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		llm:          deps.LLM,
		router:       deps.Router,
		orchestrator: deps.Orchestrator,
		planner:      deps.Planner,
		traces:       deps.Traces,
		memories:     deps.Memories,
		goals:        deps.Goals,
		negotiations: deps.Negotiations,
		users:        deps.Users,
		db:           deps.DB,
		dispatches:   newDispatchRegistry(),
		logger:       logger,
	}
}

// Routes builds the gin engine with all endpoints registered.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.Health)

	api := r.Group("/api")
	{
		api.POST("/chat", s.Chat)
		api.POST("/dispatches/:id/cancel", s.CancelDispatch)

		api.GET("/traces", s.ListTraces)
		api.GET("/traces/:id/steps", s.GetTraceSteps)
		api.POST("/traces/:id/feedback", s.SetTraceFeedback)

		api.POST("/goals", s.CreateGoal)
		api.GET("/goals", s.ListGoals)
		api.GET("/goals/:id", s.GetGoal)
		api.POST("/goals/:id/execute", s.ExecuteGoalStep)
		api.POST("/goals/:id/auto_execute", s.AutoExecuteGoal)

		api.GET("/memories", s.ListMemories)

		api.GET("/negotiations/:id", s.GetNegotiation)
	}
	return r
}
