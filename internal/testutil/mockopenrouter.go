// Package testutil provides an in-process stand-in for the OpenRouter API.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Reply is what the mock answers for one model.
type Reply struct {
	Status  int    // defaults to 200
	Content string // assistant message content on success
	Usage   string // raw JSON for the usage field; omitted when empty
	Body    string // raw body overriding the generated one
	Delay   time.Duration
}

// MockOpenRouter is an httptest.Server that simulates the OpenRouter
// /chat/completions and /models endpoints.
type MockOpenRouter struct {
	Server *httptest.Server

	mu       sync.Mutex
	replies  map[string]Reply
	fallback Reply
	models   string
	requests []Request
}

// Request captures one call received by the mock.
type Request struct {
	Path    string
	Header  http.Header
	Payload map[string]any
}

// NewMockOpenRouter starts a mock that answers every model with fallback.
func NewMockOpenRouter(fallback Reply) *MockOpenRouter {
	m := &MockOpenRouter{
		replies:  make(map[string]Reply),
		fallback: fallback,
		models:   `{"data":[]}`,
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// Close shuts down the mock server.
func (m *MockOpenRouter) Close() {
	m.Server.Close()
}

// URL returns the base URL to configure the client with.
func (m *MockOpenRouter) URL() string {
	return m.Server.URL
}

// SetReply overrides the answer for a single model.
func (m *MockOpenRouter) SetReply(model string, r Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[model] = r
}

// SetModels sets the raw body served by GET /models.
func (m *MockOpenRouter) SetModels(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = body
}

// Requests returns every request received so far, in arrival order.
func (m *MockOpenRouter) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestedModels returns the model field of every completion request, sorted by arrival.
func (m *MockOpenRouter) RequestedModels() []string {
	var out []string
	for _, r := range m.Requests() {
		if model, ok := r.Payload["model"].(string); ok {
			out = append(out, model)
		}
	}
	return out
}

func (m *MockOpenRouter) handle(w http.ResponseWriter, r *http.Request) {
	rec := Request{Path: r.URL.Path, Header: r.Header.Clone()}
	if r.Body != nil && r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&rec.Payload)
	}

	m.mu.Lock()
	m.requests = append(m.requests, rec)
	models := m.models
	reply := m.fallback
	if model, ok := rec.Payload["model"].(string); ok {
		if override, found := m.replies[model]; found {
			reply = override
		}
	}
	m.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/models":
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(models))
	case r.Method == http.MethodPost && r.URL.Path == "/chat/completions":
		if reply.Delay > 0 {
			select {
			case <-time.After(reply.Delay):
			case <-r.Context().Done():
				return
			}
		}
		writeReply(w, reply)
	default:
		http.NotFound(w, r)
	}
}

func writeReply(w http.ResponseWriter, reply Reply) {
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if reply.Body != "" {
		_, _ = w.Write([]byte(reply.Body))
		return
	}

	resp := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": reply.Content}},
		},
	}
	if reply.Usage != "" {
		resp["usage"] = json.RawMessage(reply.Usage)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
