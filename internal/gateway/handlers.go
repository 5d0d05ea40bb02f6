package gateway

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html"
	"html/template"
	"net/http"
	"strings"

	"github.com/soyeahso/prodbot/internal/agent"
)

//go:embed web/chat.html
var webFS embed.FS

var chatPage = template.Must(template.ParseFS(webFS, "web/chat.html"))

const msgNotInitialized = "Error: Agent is not initialized."

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status; the RPC method fills in the rest.
type HealthResponse struct {
	Status      string   `json:"status"`
	Version     string   `json:"version,omitempty"`
	Clients     int      `json:"clients,omitempty"`
	Initialized bool     `json:"initialized,omitempty"`
	Tools       []string `json:"tools,omitempty"`
	UptimeMs    int64    `json:"uptimeMs,omitempty"`
}

// ChatRequest is the body of POST /api/chat and the chat.send params.
type ChatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId,omitempty"`
}

// ChatResponse answers a chat request.
type ChatResponse struct {
	Answer     string   `json:"answer"`
	ThreadID   string   `json:"threadId"`
	Path       []string `json:"path"`
	DurationMs int64    `json:"durationMs"`
}

func newChatResponse(res *agent.Result) ChatResponse {
	return ChatResponse{
		Answer:     res.Answer,
		ThreadID:   res.ThreadID,
		Path:       res.Path,
		DurationMs: res.Duration.Milliseconds(),
	}
}

// run executes one agent turn bounded by the configured run timeout.
func (s *Server) run(ctx context.Context, query, threadID string) (*agent.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()
	return s.agent.RunDetailed(ctx, query, threadID)
}

// runStatus maps a failed run to an HTTP status.
func runStatus(err error) int {
	var nodeErr *agent.NodeError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &nodeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := chatPage.Execute(w, struct{ Thread string }{s.cfg.Agent.DefaultThread})
	if err != nil {
		s.log.Error().Err(err).Msg("rendering chat page")
	}
}

// handleGet answers the form post from the chat page. The answer is
// returned as escaped HTML.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !s.agent.Initialized() {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(msgNotInitialized))
		return
	}

	msg := strings.TrimSpace(r.FormValue("msg"))
	if msg == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Error: msg is required."))
		return
	}

	res, err := s.run(r.Context(), msg, r.FormValue("thread_id"))
	if err != nil {
		s.log.Error().Err(err).Str("requestId", RequestID(r.Context())).Msg("run failed")
		w.WriteHeader(runStatus(err))
		w.Write([]byte("Error: " + html.EscapeString(err.Error())))
		return
	}
	w.Write([]byte(html.EscapeString(res.Answer)))
}

func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	if !s.agent.Initialized() {
		writeJSONError(w, http.StatusServiceUnavailable, "agent is not initialized")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayload)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	res, err := s.run(r.Context(), req.Message, req.ThreadID)
	if err != nil {
		s.log.Error().Err(err).Str("requestId", RequestID(r.Context())).Msg("run failed")
		writeJSONError(w, runStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newChatResponse(res))
}

func (s *Server) handleAPIThread(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	msgs, err := s.agent.Thread(r.Context(), id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(msgs) == 0 {
		writeJSONError(w, http.StatusNotFound, "thread not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threadId": id, "messages": msgs})
}

func (s *Server) handleAPITools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.agent.Tools()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// requireAuth rejects requests without the gateway bearer credential.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !AuthorizeHTTP(s.auth, r) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="prodbot"`)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RequestHandler processes an incoming RPC request frame from a client.
type RequestHandler func(rc *RequestContext)

// RequestContext carries everything an RPC handler needs.
type RequestContext struct {
	Ctx    context.Context
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.respondError(ErrorShape{Code: code, Message: message})
}

func (rc *RequestContext) respondError(e ErrorShape) {
	if err := rc.Client.RespondError(rc.Frame.ID, e); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send error")
	}
}

// Params unmarshals the request params into target. Absent params leave
// target untouched.
func (rc *RequestContext) Params(target any) error {
	if len(rc.Frame.Params) == 0 {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}
