package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creditdesk/desk-agent/internal/agent"
	"github.com/creditdesk/desk-agent/internal/conversation"
	"github.com/creditdesk/desk-agent/internal/metrics"
	"github.com/creditdesk/desk-agent/internal/tools"
)

// scriptedEngine returns canned replies in order.
type scriptedEngine struct {
	replies []string
	err     error
	calls   int
}

func (e *scriptedEngine) Generate(ctx context.Context, prompt string) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	if len(e.replies) == 0 {
		return "", nil
	}
	reply := e.replies[0]
	e.replies = e.replies[1:]
	return reply, nil
}

func (e *scriptedEngine) Ping(ctx context.Context) error { return e.err }

func testServer(t *testing.T, engine *scriptedEngine) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog := tools.NewRegistry(tools.NewWorkflowClient("", "", 0), nil, nil, logger)
	router, err := agent.NewOverrideRouter(catalog)
	if err != nil {
		t.Fatalf("NewOverrideRouter: %v", err)
	}

	controller := agent.New(logger, conversation.NewMemoryLog(), engine, catalog,
		router, agent.NewNotifier(nil, logger), 5)

	return NewServer("127.0.0.1:0", controller, engine, nil, logger)
}

func TestHandleAsk(t *testing.T) {
	engine := &scriptedEngine{replies: []string{"A 9% debt yield is on the low side."}}
	s := testServer(t, engine)

	req := httptest.NewRequest("POST", "/ask", strings.NewReader(`{"message": "is 9% debt yield good?"}`))
	rec := httptest.NewRecorder()
	s.handleAsk(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "low side") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleAsk_BlankInputShortCircuits(t *testing.T) {
	engine := &scriptedEngine{}
	s := testServer(t, engine)

	for _, body := range []string{`{"message": ""}`, `{"message": "   "}`, `{}`} {
		req := httptest.NewRequest("POST", "/ask", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.handleAsk(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("body %s: status = %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "(no input)") {
			t.Errorf("body %s: response = %s", body, rec.Body.String())
		}
	}

	if engine.calls != 0 {
		t.Errorf("engine was consulted %d times for blank input", engine.calls)
	}
}

func TestHandleAsk_InvalidJSON(t *testing.T) {
	s := testServer(t, &scriptedEngine{})

	req := httptest.NewRequest("POST", "/ask", strings.NewReader(`{message`))
	rec := httptest.NewRecorder()
	s.handleAsk(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// Engine failures must come back as a normal answer, not an HTTP error.
func TestHandleAsk_EngineDownStillAnswers(t *testing.T) {
	engine := &scriptedEngine{err: errors.New("connection refused")}
	s := testServer(t, engine)

	req := httptest.NewRequest("POST", "/ask", strings.NewReader(`{"message": "hello"}`))
	rec := httptest.NewRecorder()
	s.handleAsk(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "could not reach the reasoning engine") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t, &scriptedEngine{})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"engine":"healthy"`) {
		t.Errorf("body = %s", body)
	}
	if !strings.Contains(body, `"db":"disabled"`) {
		t.Errorf("body = %s", body)
	}
}

func TestHandleHealth_EngineDown(t *testing.T) {
	s := testServer(t, &scriptedEngine{err: errors.New("connection refused")})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	// Degraded components are reported in the body, not as an HTTP error.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unreachable") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := promhttp.HandlerFor(metrics.DefaultRegistry, promhttp.HandlerOpts{})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "deskagent_") {
		t.Error("exposition does not carry agent metrics")
	}
}
