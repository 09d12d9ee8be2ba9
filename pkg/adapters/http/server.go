// Package http exposes the engine over a REST + SSE transport for voice
// platform integrations: session lifecycle, turn advancement and live state
// diffs per session.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleylabs/parley"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/graph"
)

// Engine defines the interface for the Parley session core.
type Engine interface {
	Start(ctx context.Context, sessionID string) (*domain.State, error)
	Get(ctx context.Context, sessionID string) (*domain.State, error)
	Delete(ctx context.Context, sessionID string) error
	Advance(ctx context.Context, sessionID string, verdict domain.Verdict) (*domain.State, *domain.TransitionResult, error)
	AdvanceText(ctx context.Context, sessionID string, window []string) (*domain.State, *domain.TransitionResult, error)
	Filler(ctx context.Context, sessionID, group string) (string, error)
	End(ctx context.Context, sessionID string) (*domain.State, *domain.Report, error)
	Sessions(ctx context.Context) ([]string, error)
	Graph() *graph.Graph
	Watch(ctx context.Context) (<-chan string, error)
}

// Server holds the transport state.
type Server struct {
	Engine  Engine
	Streams *StreamManager
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine) http.Handler {
	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/graph", server.GetGraph)
	r.Get("/events", server.SubscribeEvents)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", server.CreateSession)
		r.Get("/", server.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/turns", server.AdvanceTurn)
			r.Post("/end", server.EndSession)
			r.Get("/filler", server.GetFiller)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Request/response shapes --

// CreateSessionRequest optionally pins the session ID (e.g. the telephony call
// ID); empty means the server generates one.
type CreateSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// TurnRequest carries either an explicit verdict (complete + optional target,
// as reported by the model's tool call) or a transcript window for the
// completion oracle to judge.
type TurnRequest struct {
	Complete *bool          `json:"complete,omitempty"`
	Target   *domain.Target `json:"target,omitempty"`
	Window   []string       `json:"window,omitempty"`
}

// TurnResponse pairs the post-turn state with the transition side effects.
type TurnResponse struct {
	State  *domain.State            `json:"state"`
	Result *domain.TransitionResult `json:"result"`
}

// EndResponse pairs the final state with the dispatched summary report.
type EndResponse struct {
	State  *domain.State  `json:"state"`
	Report *domain.Report `json:"report"`
}

// GraphResponse is the introspection payload.
type GraphResponse struct {
	Entry     string            `json:"entry"`
	Contexts  []domain.Context  `json:"contexts"`
	Languages []domain.Language `json:"languages,omitempty"`
}

type errorResponse struct {
	Error      string          `json:"error"`
	Detail     string          `json:"detail,omitempty"`
	Candidates []domain.Target `json:"candidates,omitempty"`
}

// -- Handlers --

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
			return
		}
	}

	state, err := s.Engine.Start(r.Context(), body.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "start_failed", err.Error(), nil)
		slog.Error("CreateSession failed", "err", err)
		return
	}

	s.broadcastDiff(nil, state)
	writeJSON(w, http.StatusCreated, state)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.Engine.Sessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": sessions})
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Engine.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdvanceTurn handles POST /sessions/{sessionID}/turns.
func (s *Server) AdvanceTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		slog.Warn("AdvanceTurn: invalid request body", "err", err)
		return
	}

	prev, err := s.Engine.Get(r.Context(), sessionID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	var state *domain.State
	var result *domain.TransitionResult
	if body.Complete == nil && len(body.Window) > 0 {
		state, result, err = s.Engine.AdvanceText(r.Context(), sessionID, body.Window)
	} else {
		verdict := domain.Verdict{Target: body.Target}
		if body.Complete != nil {
			verdict.Complete = *body.Complete
		}
		state, result, err = s.Engine.Advance(r.Context(), sessionID, verdict)
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.broadcastDiff(prev, state)
	writeJSON(w, http.StatusOK, TurnResponse{State: state, Result: result})
}

// EndSession handles POST /sessions/{sessionID}/end.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	prev, err := s.Engine.Get(r.Context(), sessionID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	state, report, err := s.Engine.End(r.Context(), sessionID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.broadcastDiff(prev, state)
	writeJSON(w, http.StatusOK, EndResponse{State: state, Report: report})
}

// GetFiller handles GET /sessions/{sessionID}/filler?group=thinking.
func (s *Server) GetFiller(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	if group == "" {
		group = "thinking"
	}

	filler, err := s.Engine.Filler(r.Context(), chi.URLParam(r, "sessionID"), group)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"group": group, "filler": filler})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g := s.Engine.Graph()
	entry, _ := g.EntryPoint()
	writeJSON(w, http.StatusOK, GraphResponse{
		Entry:     entry,
		Contexts:  g.Contexts(),
		Languages: g.Languages(),
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": strings.TrimSpace(parley.Version),
	})
}

func (s *Server) broadcastDiff(prev, next *domain.State) {
	diff := domain.Diff(prev, next)
	if diff == nil {
		return
	}
	if payload, err := json.Marshal(diff); err == nil {
		s.Streams.Broadcast(diff.SessionID, string(payload))
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var illegal *domain.IllegalTransitionError
	var ambiguous *domain.AmbiguousTransitionError

	switch {
	case errors.As(err, &illegal):
		writeError(w, http.StatusConflict, "illegal_transition", illegal.Error(), nil)
	case errors.As(err, &ambiguous):
		writeError(w, http.StatusConflict, "ambiguous_transition", ambiguous.Error(), ambiguous.Candidates)
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error(), nil)
	case errors.Is(err, domain.ErrSessionEnded):
		writeError(w, http.StatusGone, "session_ended", err.Error(), nil)
	case errors.Is(err, domain.ErrContextNotFound), errors.Is(err, domain.ErrStepNotFound):
		writeError(w, http.StatusUnprocessableEntity, "unknown_target", err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
		slog.Error("request failed", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string, candidates []domain.Target) {
	writeJSON(w, status, errorResponse{Error: code, Detail: detail, Candidates: candidates})
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if subs, ok := sm.subscribers[sessionID]; ok {
		for ch := range subs {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				slog.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
			}
		}
	}
}

// SubscribeEvents handles GET /events (SSE). Without a session_id the stream
// carries hot-reload signals from the definition watcher; with one it carries
// per-session state diffs, optionally filtered by the watch parameter.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := r.URL.Query().Get("session_id")

	if sessionID == "" {
		events, err := s.Engine.Watch(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", event)
				flusher.Flush()
			}
		}
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !diffMatches(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// diffMatches reports whether the serialized diff touches any watched field.
func diffMatches(msg string, watchList []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "context":
			if diff.CurrentContext != nil {
				return true
			}
		case "step":
			if diff.CurrentStep != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		case "language":
			if diff.ActiveLanguage != nil {
				return true
			}
		case "history":
			if diff.History != nil {
				return true
			}
		}
	}
	return false
}
