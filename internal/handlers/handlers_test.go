package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aiindex-backend/internal/config"
	"aiindex-backend/internal/models"
	"aiindex-backend/internal/services"
	"aiindex-backend/internal/websocket"
	"aiindex-backend/internal/worker"
)

type call struct {
	model       string
	messages    []models.ChatMessage
	temperature float64
	opts        map[string]any
}

type stubClient struct {
	mu     sync.Mutex
	calls  []call
	errs   map[string]error
	usage  string
	models []models.ModelInfo
	err    error
}

func (s *stubClient) Complete(ctx context.Context, model string, messages []models.ChatMessage, temperature float64, opts map[string]any) (*models.Completion, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{model: model, messages: messages, temperature: temperature, opts: opts})
	s.mu.Unlock()

	if err := s.errs[model]; err != nil {
		return nil, err
	}
	usage := s.usage
	if usage == "" {
		usage = `{}`
	}
	return &models.Completion{Model: model, Content: "answer:" + model, Usage: json.RawMessage(usage)}, nil
}

func (s *stubClient) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	return s.models, s.err
}

func (s *stubClient) calledModels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.model)
	}
	return out
}

func post(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func newCompareHandler(client services.Completer) *CompareHandler {
	return NewCompareHandler(services.NewCompareService(client, worker.NewPool(3), time.Second), websocket.NewUpgrader(nil), nil)
}

// ─── Chat ───

func TestChat_MissingMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"only model", `{"model":"a/b"}`},
		{"blank message", `{"message":"   "}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &stubClient{}
			h := NewChatHandler(client, config.DefaultModel)

			rr := post(t, h.Chat, "/api/chat", tc.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			body := decodeError(t, rr)
			assert.Equal(t, "Missing 'message' in request body", body.Error)
			assert.Equal(t, "req-1", body.RequestID)
			assert.Empty(t, client.calls, "no upstream call expected")
		})
	}
}

func TestChat_InvalidJSON(t *testing.T) {
	client := &stubClient{}
	rr := post(t, NewChatHandler(client, config.DefaultModel).Chat, "/api/chat", `{"message":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, rr).Error)
	assert.Empty(t, client.calls)
}

func TestChat_InvalidTemperature(t *testing.T) {
	client := &stubClient{}
	rr := post(t, NewChatHandler(client, config.DefaultModel).Chat, "/api/chat", `{"message":"hi","temperature":3}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid 'temperature' in request body", decodeError(t, rr).Error)
	assert.Empty(t, client.calls)
}

func TestChat_UsesDefaultModelAndPropagatesUsage(t *testing.T) {
	client := &stubClient{usage: `{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}`}
	h := NewChatHandler(client, "default/model")

	rr := post(t, h.Chat, "/api/chat", `{"message":"hello"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "default/model", resp.Model)
	assert.Equal(t, "answer:default/model", resp.Response)
	assert.JSONEq(t, `{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}`, string(resp.Usage))

	require.Len(t, client.calls, 1)
	assert.Equal(t, []models.ChatMessage{{Role: "user", Content: "hello"}}, client.calls[0].messages)
	assert.Equal(t, 0.7, client.calls[0].temperature)
	assert.Nil(t, client.calls[0].opts)
}

func TestChat_ForwardsOptions(t *testing.T) {
	client := &stubClient{}
	h := NewChatHandler(client, "default/model")

	rr := post(t, h.Chat, "/api/chat", `{"message":"hello","model":"x/y","temperature":0.2,"max_tokens":128}`)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, client.calls, 1)
	assert.Equal(t, "x/y", client.calls[0].model)
	assert.Equal(t, 0.2, client.calls[0].temperature)
	assert.Equal(t, map[string]any{"max_tokens": 128}, client.calls[0].opts)
}

func TestChat_ClientErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantError  string
		wantStatus int
	}{
		{"upstream", &services.UpstreamHTTPError{StatusCode: 402, Body: "no credits"}, "OpenRouter API error", 402},
		{"transport", &services.TransportError{Err: errors.New("dial tcp: refused")}, "OpenRouter request failed", 0},
		{"malformed", &services.MalformedResponseError{Reason: "no choices in response"}, "Malformed OpenRouter response", 0},
		{"other", errors.New("boom"), "Unexpected error", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &stubClient{errs: map[string]error{"m": tc.err}}
			rr := post(t, NewChatHandler(client, "m").Chat, "/api/chat", `{"message":"hi"}`)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			body := decodeError(t, rr)
			assert.Equal(t, tc.wantError, body.Error)
			assert.NotEmpty(t, body.Details)
			assert.Equal(t, tc.wantStatus, body.StatusCode)
		})
	}
}

func TestChat_NotConfigured(t *testing.T) {
	rr := post(t, NewChatHandler(nil, "m").Chat, "/api/chat", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, notConfiguredMessage, decodeError(t, rr).Error)
}

// ─── Compare ───

func TestCompare_MissingPrompt(t *testing.T) {
	client := &stubClient{}
	rr := post(t, newCompareHandler(client).Compare, "/api/compare", `{"models":["a/b"]}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing 'prompt' in request body", decodeError(t, rr).Error)
	assert.Empty(t, client.calls)
}

func TestCompare_BlankModelRejected(t *testing.T) {
	client := &stubClient{}
	rr := post(t, newCompareHandler(client).Compare, "/api/compare", `{"prompt":"hi","models":["a/b",""]}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, client.calls)
}

func TestCompare_TooManyModelsRejected(t *testing.T) {
	ids := make([]string, 11)
	for i := range ids {
		ids[i] = fmt.Sprintf(`"m/%d"`, i)
	}
	client := &stubClient{}
	rr := post(t, newCompareHandler(client).Compare, "/api/compare", `{"prompt":"hi","models":[`+strings.Join(ids, ",")+`]}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid 'models' in request body", decodeError(t, rr).Error)
	assert.Empty(t, client.calls)
}

func TestCompare_DefaultModelsInOrder(t *testing.T) {
	client := &stubClient{}
	rr := post(t, newCompareHandler(client).Compare, "/api/compare", `{"prompt":"hi"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.CompareResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "hi", resp.Prompt)
	require.Len(t, resp.Results, 3)
	for i, want := range services.DefaultCompareModels {
		assert.Equal(t, want, resp.Results[i].Model)
		assert.True(t, resp.Results[i].Success)
	}
	assert.ElementsMatch(t, services.DefaultCompareModels, client.calledModels())
}

func TestCompare_PartialFailure(t *testing.T) {
	client := &stubClient{errs: map[string]error{
		"b/two": &services.UpstreamHTTPError{StatusCode: 500, Body: "upstream down"},
	}}
	rr := post(t, newCompareHandler(client).Compare, "/api/compare", `{"prompt":"hi","models":["a/one","b/two","c/three"]}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.CompareResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	require.Len(t, resp.Results, 3)
	assert.Equal(t, []bool{true, false, true},
		[]bool{resp.Results[0].Success, resp.Results[1].Success, resp.Results[2].Success})
	assert.Equal(t, "b/two", resp.Results[1].Model)
	assert.Contains(t, resp.Results[1].Error, "upstream down")
	assert.Nil(t, resp.Results[1].Response)
	assert.Empty(t, resp.Results[0].Error)
}

func TestCompare_ExplicitEmptyModelList(t *testing.T) {
	client := &stubClient{}
	rr := post(t, newCompareHandler(client).Compare, "/api/compare", `{"prompt":"hi","models":[]}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.CompareResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Empty(t, resp.Results)
	assert.Empty(t, client.calls)
}

func TestCompare_NotConfigured(t *testing.T) {
	rr := post(t, newCompareHandler(nil).Compare, "/api/compare", `{"prompt":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, notConfiguredMessage, decodeError(t, rr).Error)
}

// ─── Models ───

func TestModels_FreeIsStatic(t *testing.T) {
	catalog, err := services.NewFreeModelCatalog()
	require.NoError(t, err)
	h := NewModelsHandler(catalog, nil)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.Free(rr, httptest.NewRequest(http.MethodGet, "/api/models/free", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp models.FreeModelsResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 5, resp.Count)
		assert.Len(t, resp.Models, 5)
		assert.Equal(t, "deepseek/deepseek-r1:free", resp.Models[0].ID)
	}
}

func TestModels_List(t *testing.T) {
	catalog, _ := services.NewFreeModelCatalog()
	client := &stubClient{models: []models.ModelInfo{json.RawMessage(`{"id":"a/one"}`)}}

	rr := httptest.NewRecorder()
	NewModelsHandler(catalog, client).List(rr, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"count":1,"models":[{"id":"a/one"}]}`, rr.Body.String())
}

func TestModels_ListNotConfigured(t *testing.T) {
	catalog, _ := services.NewFreeModelCatalog()

	rr := httptest.NewRecorder()
	NewModelsHandler(catalog, nil).List(rr, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// ─── Health ───

func TestHealth_ReportsConfiguration(t *testing.T) {
	cfg := &config.Config{
		OpenRouterAPIURL: config.DefaultAPIURL,
		OpenRouterModel:  config.DefaultModel,
		CORSOrigins:      []string{"http://localhost:3000"},
	}
	h := NewHealthHandler(cfg)

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"status": "healthy",
		"openrouter": {"configured": false, "api_url": "https://openrouter.ai/api/v1", "default_model": "deepseek/deepseek-r1:free"},
		"cors": {"allowed_origins": ["http://localhost:3000"]}
	}`, rr.Body.String())

	cfg.OpenRouterAPIKey = "sk-x"
	rr = httptest.NewRecorder()
	h.Root(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"running","app":"The Practical AI Index Backend","openrouter_configured":true}`, rr.Body.String())
}
