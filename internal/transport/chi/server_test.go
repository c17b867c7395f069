package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/cowlitea/cowlitea/internal/domain"
	healthuc "github.com/cowlitea/cowlitea/internal/usecase/health"
)

type mockChatService struct {
	answerFunc func(ctx context.Context, conversationID string, history []domain.Message) (<-chan domain.StreamEvent, error)
}

func (m *mockChatService) Answer(ctx context.Context, conversationID string, history []domain.Message) (<-chan domain.StreamEvent, error) {
	return m.answerFunc(ctx, conversationID, history)
}

type mockIngestService struct {
	ingestFunc func(ctx context.Context, url string, kind domain.RecordKind) (*domain.Record, error)
}

func (m *mockIngestService) Ingest(ctx context.Context, url string, kind domain.RecordKind) (*domain.Record, error) {
	return m.ingestFunc(ctx, url, kind)
}

type mockConversationReader struct {
	historyFunc func(ctx context.Context, conversationID string) ([]domain.Message, error)
}

func (m *mockConversationReader) History(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if m.historyFunc == nil {
		return nil, nil
	}
	return m.historyFunc(ctx, conversationID)
}

type mockHealthService struct {
	report healthuc.Report
}

func (m *mockHealthService) Check(_ context.Context) healthuc.Report { return m.report }

func eventChan(events ...domain.StreamEvent) <-chan domain.StreamEvent {
	ch := make(chan domain.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func newTestServer(chat ChatService, ingest IngestService, health HealthService) *Server {
	if health == nil {
		health = &mockHealthService{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	return NewServer(chat, ingest, &mockConversationReader{}, health, zap.NewNop())
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.Routes().ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, rr.Body.String())
	}
	return resp.Code
}

func TestChat_StreamsPlainText(t *testing.T) {
	chat := &mockChatService{
		answerFunc: func(_ context.Context, conversationID string, history []domain.Message) (<-chan domain.StreamEvent, error) {
			if conversationID != "conv-42" {
				t.Errorf("conversation id = %q, want conv-42", conversationID)
			}
			if len(history) != 1 || history[0].Content != "best boba in SF" {
				t.Errorf("history = %+v", history)
			}
			return eventChan(
				domain.ChunkEvent("Try "),
				domain.ChunkEvent("Boba Guys."),
				domain.DoneEvent(),
			), nil
		},
	}
	s := newTestServer(chat, nil, nil)

	rr := doRequest(t, s, http.MethodPost, "/api/chat",
		`{"conversation_id":"conv-42","messages":[{"role":"user","content":"best boba in SF"}]}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if got := rr.Body.String(); got != "Try Boba Guys." {
		t.Errorf("body = %q, want %q", got, "Try Boba Guys.")
	}
	if !rr.Flushed {
		t.Error("chunks should be flushed as they arrive")
	}
}

func TestChat_MidStreamErrorCutsBody(t *testing.T) {
	chat := &mockChatService{
		answerFunc: func(_ context.Context, _ string, _ []domain.Message) (<-chan domain.StreamEvent, error) {
			return eventChan(
				domain.ChunkEvent("partial"),
				domain.ErrorEvent(domain.ErrGenerationFailed),
			), nil
		},
	}
	s := newTestServer(chat, nil, nil)

	rr := doRequest(t, s, http.MethodPost, "/api/chat",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := rr.Body.String(); got != "partial" {
		t.Errorf("body = %q, want the chunks sent before the failure", got)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	s := newTestServer(&mockChatService{}, nil, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed json", body: `{"messages":`, code: "bad_request"},
		{name: "no messages", body: `{"messages":[]}`, code: "validation_failed"},
		{name: "bad role", body: `{"messages":[{"role":"robot","content":"hi"}]}`, code: "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, s, http.MethodPost, "/api/chat", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
			if got := errorCode(t, rr); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestChat_DomainErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{err: domain.ErrInvalidInput, status: http.StatusBadRequest, code: "validation_failed"},
		{err: domain.ErrEmbeddingProviderError, status: http.StatusBadGateway, code: "embedding_provider_error"},
		{err: domain.ErrGenerationFailed, status: http.StatusBadGateway, code: "generation_failed"},
		{err: domain.ErrRetrievalFailed, status: http.StatusServiceUnavailable, code: "retrieval_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			chat := &mockChatService{
				answerFunc: func(_ context.Context, _ string, _ []domain.Message) (<-chan domain.StreamEvent, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(chat, nil, nil)

			rr := doRequest(t, s, http.MethodPost, "/api/chat",
				`{"messages":[{"role":"user","content":"hi"}]}`)

			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if got := errorCode(t, rr); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestIngestShop(t *testing.T) {
	ingest := &mockIngestService{
		ingestFunc: func(_ context.Context, url string, kind domain.RecordKind) (*domain.Record, error) {
			if url != "https://www.yelp.com/biz/boba-guys" {
				t.Errorf("url = %q", url)
			}
			if kind != domain.KindShop {
				t.Errorf("kind = %q, want shop", kind)
			}
			return &domain.Record{
				Name:        "Boba Guys",
				Kind:        domain.KindShop,
				Location:    domain.Location{City: "San Francisco", State: "CA"},
				Rating:      4.5,
				ReviewCount: 120,
			}, nil
		},
	}
	s := newTestServer(nil, ingest, nil)

	rr := doRequest(t, s, http.MethodPost, "/api/shops",
		`{"url":"https://www.yelp.com/biz/boba-guys"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rr.Code, rr.Body.String())
	}

	var resp ingestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "Boba Guys" || resp.Kind != "shop" || resp.Rating != 4.5 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Location == "" {
		t.Error("shop response should carry a location")
	}
	if resp.Subject != "" {
		t.Error("shop response should omit subject")
	}
}

func TestIngestProfessor(t *testing.T) {
	ingest := &mockIngestService{
		ingestFunc: func(_ context.Context, _ string, kind domain.RecordKind) (*domain.Record, error) {
			if kind != domain.KindProfessor {
				t.Errorf("kind = %q, want professor", kind)
			}
			return &domain.Record{
				Name:        "Jane Smith",
				Kind:        domain.KindProfessor,
				Subject:     "Computer Science",
				Rating:      4.8,
				ReviewCount: 12,
			}, nil
		},
	}
	s := newTestServer(nil, ingest, nil)

	rr := doRequest(t, s, http.MethodPost, "/api/professors",
		`{"url":"https://www.ratemyprofessors.com/professor/123"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rr.Code, rr.Body.String())
	}

	var resp ingestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Subject != "Computer Science" {
		t.Errorf("subject = %q", resp.Subject)
	}
	if resp.Location != "" {
		t.Error("professor response should omit location")
	}
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{
			name:   "missing url",
			body:   `{}`,
			status: http.StatusBadRequest,
			code:   "validation_failed",
		},
		{
			name:   "forbidden domain",
			body:   `{"url":"https://evil.example.com/biz/x"}`,
			err:    domain.ErrForbiddenDomain,
			status: http.StatusForbidden,
			code:   "forbidden_domain",
		},
		{
			name:   "incomplete page",
			body:   `{"url":"https://www.yelp.com/biz/empty"}`,
			err:    domain.ErrIncompleteRecord,
			status: http.StatusUnprocessableEntity,
			code:   "incomplete_record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingest := &mockIngestService{
				ingestFunc: func(_ context.Context, _ string, _ domain.RecordKind) (*domain.Record, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(nil, ingest, nil)

			rr := doRequest(t, s, http.MethodPost, "/api/shops", tt.body)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if got := errorCode(t, rr); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestConversation(t *testing.T) {
	conv := &mockConversationReader{
		historyFunc: func(_ context.Context, conversationID string) ([]domain.Message, error) {
			if conversationID != "conv-1" {
				t.Errorf("conversation id = %q, want conv-1", conversationID)
			}
			return []domain.Message{
				{Role: domain.RoleUser, Content: "best boba in SF"},
				{Role: domain.RoleAssistant, Content: "Try Boba Guys."},
			}, nil
		},
	}
	s := NewServer(nil, nil, conv, &mockHealthService{}, zap.NewNop())

	rr := doRequest(t, s, http.MethodGet, "/api/conversations/conv-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rr.Code, rr.Body.String())
	}

	var resp struct {
		Messages []chatMessage `json:"messages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(resp.Messages))
	}
	if resp.Messages[1].Role != domain.RoleAssistant || resp.Messages[1].Content != "Try Boba Guys." {
		t.Errorf("second message = %+v", resp.Messages[1])
	}
}

func TestConversation_Empty(t *testing.T) {
	s := NewServer(nil, nil, &mockConversationReader{}, &mockHealthService{}, zap.NewNop())

	rr := doRequest(t, s, http.MethodGet, "/api/conversations/unknown", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for an unknown conversation", rr.Code)
	}
	var resp struct {
		Messages []chatMessage `json:"messages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Messages) != 0 {
		t.Errorf("messages = %v, want none", resp.Messages)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		status int
	}{
		{
			name: "healthy",
			report: healthuc.Report{
				Status: healthuc.Healthy,
				Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
			},
			status: http.StatusOK,
		},
		{
			name: "degraded",
			report: healthuc.Report{
				Status: healthuc.Degraded,
				Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
			},
			status: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(nil, nil, &mockHealthService{report: tt.report})

			rr := doRequest(t, s, http.MethodGet, "/health", "")
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			var resp struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Status != string(tt.report.Status) {
				t.Errorf("reported status = %q, want %q", resp.Status, tt.report.Status)
			}
		})
	}
}
