// Package server exposes the agent over HTTP: create a session for a
// client, post messages to it, and read its history. Each session wraps one
// agent.Session; turns within a session run sequentially.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/dineshram0212/bank-transaction-agent/internal/agent"
	"github.com/dineshram0212/bank-transaction-agent/internal/llm"
	"github.com/dineshram0212/bank-transaction-agent/internal/logger"
)

// ClientChecker reports whether a client has any transactions.
// *store.Store satisfies it.
type ClientChecker interface {
	ClientExists(ctx context.Context, clientID string) (bool, error)
}

// Server owns the live sessions and routes HTTP requests to them.
type Server struct {
	agent   *agent.Agent
	clients ClientChecker

	mu       sync.RWMutex
	sessions map[string]*agent.Session
}

func New(ag *agent.Agent, clients ClientChecker) *Server {
	return &Server{
		agent:    ag,
		clients:  clients,
		sessions: make(map[string]*agent.Session),
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/sessions", s.createSession)
		api.POST("/sessions/:id/messages", s.postMessage)
		api.GET("/sessions/:id/history", s.getHistory)
	}

	return router
}

// Run starts the HTTP server on addr and blocks.
func (s *Server) Run(addr string) error {
	logger.Info().Str("addr", addr).Msg("starting http server")
	return s.Router().Run(addr)
}

type createSessionRequest struct {
	ClientID string `json:"client_id" binding:"required"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	ClientID  string `json:"client_id"`
}

func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exists, err := s.clients.ClientExists(c.Request.Context(), req.ClientID)
	if err != nil {
		logger.Error().Err(err).Msg("client lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "client lookup failed"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown client: " + req.ClientID})
		return
	}

	session := agent.NewSession(s.agent, req.ClientID)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	logger.Info().Str("session", session.ID).Str("client", req.ClientID).Msg("session created")
	c.JSON(http.StatusCreated, sessionResponse{SessionID: session.ID, ClientID: req.ClientID})
}

type postMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type chartPayload struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

type messageResponse struct {
	Content string        `json:"content"`
	Chart   *chartPayload `json:"chart,omitempty"`
}

func (s *Server) postMessage(c *gin.Context) {
	session, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	turn, err := session.Ask(c.Request.Context(), req.Message)
	if err != nil {
		logger.Error().Err(err).Str("session", session.ID).Msg("turn failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := messageResponse{Content: turn.Content}
	if turn.Chart != nil {
		resp.Chart = &chartPayload{
			Kind:  string(turn.Chart.Kind),
			Title: turn.Chart.Title,
			HTML:  string(turn.Chart.HTML),
		}
	}
	c.JSON(http.StatusOK, resp)
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Server) getHistory(c *gin.Context) {
	session, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	var out []historyMessage
	for _, m := range session.History() {
		// Tool plumbing stays internal; the transcript is user/assistant text.
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			continue
		}
		if m.Content == "" {
			continue
		}
		out = append(out, historyMessage{Role: string(m.Role), Content: m.Content})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func (s *Server) lookup(id string) (*agent.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}
