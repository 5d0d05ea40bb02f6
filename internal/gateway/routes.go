package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/soyeahso/prodbot/internal/agent"
	"github.com/soyeahso/prodbot/internal/domain"
	"github.com/soyeahso/prodbot/internal/version"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /get", s.handleGet)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("POST /api/chat", s.requireAuth(s.handleAPIChat))
	mux.HandleFunc("GET /api/threads/{id}", s.requireAuth(s.handleAPIThread))
	mux.HandleFunc("GET /api/tools", s.requireAuth(s.handleAPITools))

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up the websocket RPC methods.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("chat.send", s.rpcChatSend)
	s.Handle("thread.get", s.rpcThreadGet)
	s.Handle("tools.list", s.rpcToolsList)
	s.Handle("channels.status", s.rpcChannelsStatus)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:      "ok",
		Version:     version.Version,
		Clients:     s.clients.Count(),
		Initialized: s.agent.Initialized(),
		Tools:       s.agent.Tools(),
		UptimeMs:    s.uptime().Milliseconds(),
	})
}

func (s *Server) rpcChatSend(rc *RequestContext) {
	if !s.agent.Initialized() {
		rc.respondError(ErrorShape{Code: CodeUnavailable, Message: "agent is not initialized", Retryable: true})
		return
	}

	var p ChatRequest
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if strings.TrimSpace(p.Message) == "" {
		rc.RespondError(CodeInvalidParams, "message is required")
		return
	}

	res, err := s.run(rc.Ctx, p.Message, p.ThreadID)
	if err != nil {
		rc.respondError(rpcRunError(err))
		return
	}
	rc.Respond(newChatResponse(res))
}

// rpcRunError maps a failed run to an RPC error body.
func rpcRunError(err error) ErrorShape {
	var nodeErr *agent.NodeError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorShape{Code: CodeAgentError, Message: err.Error(), Retryable: true}
	case errors.As(err, &nodeErr):
		return ErrorShape{Code: CodeToolFailure, Message: err.Error(), Retryable: true}
	default:
		return ErrorShape{Code: CodeAgentError, Message: err.Error()}
	}
}

type threadGetParams struct {
	ThreadID string `json:"threadId"`
}

func (s *Server) rpcThreadGet(rc *RequestContext) {
	var p threadGetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if p.ThreadID == "" {
		rc.RespondError(CodeInvalidParams, "threadId is required")
		return
	}
	msgs, err := s.agent.Thread(rc.Ctx, p.ThreadID)
	if err != nil {
		rc.RespondError(CodeAgentError, err.Error())
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	rc.Respond(map[string]any{"threadId": p.ThreadID, "messages": msgs})
}

func (s *Server) rpcToolsList(rc *RequestContext) {
	rc.Respond(map[string]any{"tools": s.agent.Tools()})
}

func (s *Server) rpcChannelsStatus(rc *RequestContext) {
	statuses := []domain.ChannelStatus{}
	if s.channels != nil {
		statuses = s.channels.Status()
	}
	rc.Respond(map[string]any{"channels": statuses})
}
