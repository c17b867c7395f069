// Package chi exposes the HTTP API: chat completion streaming, catalog
// ingestion, and health.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cowlitea/cowlitea/internal/domain"
	healthuc "github.com/cowlitea/cowlitea/internal/usecase/health"
)

// ChatService answers one chat turn as a stream of completion events.
type ChatService interface {
	Answer(ctx context.Context, conversationID string, history []domain.Message) (<-chan domain.StreamEvent, error)
}

// IngestService scrapes a profile URL into the catalog.
type IngestService interface {
	Ingest(ctx context.Context, url string, kind domain.RecordKind) (*domain.Record, error)
}

// ConversationReader loads logged conversation turns.
type ConversationReader interface {
	History(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// HealthService aggregates component health checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	chat          ChatService
	ingest        IngestService
	conversations ConversationReader
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat ChatService,
	ingest IngestService,
	conversations ConversationReader,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:          chat,
		ingest:        ingest,
		conversations: conversations,
		health:        health,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrForbiddenDomain, http.StatusForbidden, "forbidden_domain"),
		sentinelHandler(domain.ErrIncompleteRecord, http.StatusUnprocessableEntity, "incomplete_record"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, "generation_failed"),
		sentinelHandler(domain.ErrRetrievalFailed, http.StatusServiceUnavailable, "retrieval_failed"),
	}
	return s
}

// Routes registers all handlers on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/api/chat", s.Chat)
	r.Get("/api/conversations/{id}", s.Conversation)
	r.Post("/api/shops", s.IngestShop)
	r.Post("/api/professors", s.IngestProfessor)
	return r
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	ConversationID string        `json:"conversation_id,omitempty"`
	Messages       []chatMessage `json:"messages"`
}

// Chat handles POST /api/chat. The completion is streamed as plain text;
// domain errors before the first chunk map to JSON error responses.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	history, err := messagesFromRequest(req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	events, err := s.chat.Answer(r.Context(), req.ConversationID, history)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for ev := range events {
		if ev.Err != nil {
			// Headers are already sent; log and cut the stream.
			s.logger.Warn("Completion stream aborted", zap.Error(ev.Err))
			return
		}
		if ev.Chunk == "" {
			continue
		}
		if _, err := w.Write([]byte(ev.Chunk)); err != nil {
			s.logger.Debug("Client disconnected mid-stream", zap.Error(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// Conversation handles GET /api/conversations/{id}.
func (s *Server) Conversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	msgs, err := s.conversations.History(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	out := make([]chatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

type ingestRequest struct {
	URL string `json:"url"`
}

type ingestResponse struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	Location    string  `json:"location,omitempty"`
	Subject     string  `json:"subject,omitempty"`
}

// IngestShop handles POST /api/shops.
func (s *Server) IngestShop(w http.ResponseWriter, r *http.Request) {
	s.handleIngest(w, r, domain.KindShop)
}

// IngestProfessor handles POST /api/professors.
func (s *Server) IngestProfessor(w http.ResponseWriter, r *http.Request) {
	s.handleIngest(w, r, domain.KindProfessor)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request, kind domain.RecordKind) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "url is required")
		return
	}

	rec, err := s.ingest.Ingest(r.Context(), req.URL, kind)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := ingestResponse{
		Name:        rec.Name,
		Kind:        string(rec.Kind),
		Rating:      rec.Rating,
		ReviewCount: rec.ReviewCount,
		Subject:     rec.Subject,
	}
	if rec.Kind == domain.KindShop {
		resp.Location = rec.Location.String()
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func messagesFromRequest(msgs []chatMessage) ([]domain.Message, error) {
	if len(msgs) == 0 {
		return nil, errors.New("messages must not be empty")
	}
	out := make([]domain.Message, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		default:
			return nil, errors.New("message role must be user, assistant, or system")
		}
		out[i] = domain.Message{Role: m.Role, Content: m.Content}
	}
	return out, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrForbiddenDomain,
		domain.ErrIncompleteRecord,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationFailed,
		domain.ErrRetrievalFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
