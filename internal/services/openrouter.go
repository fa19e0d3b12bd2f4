package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"aiindex-backend/internal/metrics"
	"aiindex-backend/internal/models"
)

// maxErrorBody caps how much of a failed upstream body is kept.
const maxErrorBody = 64 << 10

// DefaultTestPrompt is sent by TestModel when no prompt is given.
const DefaultTestPrompt = "Say 'Hello, World!' in a friendly tone."

type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	AppName string
	AppURL  string
	Timeout time.Duration
}

// OpenRouterService issues chat completion and model listing calls. It holds
// only immutable configuration and is safe for concurrent use.
type OpenRouterService struct {
	cfg        OpenRouterConfig
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewOpenRouterService(cfg OpenRouterConfig, m *metrics.Metrics, log *zap.Logger) (*OpenRouterService, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if log == nil {
		log = zap.NewNop()
	}

	return &OpenRouterService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
		log:        log,
	}, nil
}

type chatCompletionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage json.RawMessage `json:"usage"`
}

// Complete sends one chat completion request. opts are merged into the payload
// verbatim and override the fixed fields.
func (s *OpenRouterService) Complete(ctx context.Context, model string, messages []models.ChatMessage, temperature float64, opts map[string]any) (*models.Completion, error) {
	payload := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": temperature,
	}
	for k, v := range opts {
		payload[k] = v
	}

	start := time.Now()
	raw, err := s.do(ctx, http.MethodPost, "/chat/completions", payload)
	if errors.Is(err, ErrInvalidRequest) {
		s.log.Warn("openrouter request not sent", zap.String("model", model), zap.Error(err))
		return nil, err
	}
	if err != nil {
		s.observe(model, err, start)
		return nil, err
	}

	completion, err := parseCompletion(model, raw)
	s.observe(model, err, start)
	if err != nil {
		return nil, err
	}
	return completion, nil
}

// TestModel sends a single user prompt to model and returns the reply text.
// An empty prompt uses DefaultTestPrompt.
func (s *OpenRouterService) TestModel(ctx context.Context, model, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultTestPrompt
	}
	completion, err := s.Complete(ctx, model, models.UserMessage(prompt), models.DefaultTemperature, nil)
	if err != nil {
		return "", err
	}
	return completion.Content, nil
}

// ListModels returns the upstream `data` array, or an empty slice when absent.
func (s *OpenRouterService) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	raw, err := s.do(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []models.ModelInfo `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &MalformedResponseError{Reason: "model listing is not valid JSON", Err: err}
	}
	if resp.Data == nil {
		return []models.ModelInfo{}, nil
	}
	return resp.Data, nil
}

func (s *OpenRouterService) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal payload: %v", ErrInvalidRequest, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return raw, nil
}

func (s *OpenRouterService) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("HTTP-Referer", s.cfg.AppURL)
	req.Header.Set("X-Title", s.cfg.AppName)
	req.Header.Set("Content-Type", "application/json")
}

func parseCompletion(model string, raw []byte) (*models.Completion, error) {
	var resp chatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &MalformedResponseError{Reason: "body is not valid JSON", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &MalformedResponseError{Reason: "no choices in response"}
	}
	msg := resp.Choices[0].Message
	if msg == nil {
		return nil, &MalformedResponseError{Reason: "choices[0] has no message"}
	}

	// Some reasoning models answer with a null content.
	var content string
	if msg.Content != nil {
		content = *msg.Content
	}

	usage := resp.Usage
	if len(usage) == 0 || string(usage) == "null" {
		usage = json.RawMessage(`{}`)
	}

	return &models.Completion{Model: model, Content: content, Usage: usage}, nil
}

func (s *OpenRouterService) observe(model string, err error, start time.Time) {
	elapsed := time.Since(start)
	outcome := Outcome(err)
	s.metrics.ObserveCompletion(model, outcome, elapsed)
	if err != nil {
		s.log.Warn("openrouter completion failed",
			zap.String("model", model),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return
	}
	s.log.Debug("openrouter completion", zap.String("model", model), zap.Duration("elapsed", elapsed))
}

// Outcome classifies an error returned by the service into a metrics label.
func Outcome(err error) string {
	var (
		upstreamErr  *UpstreamHTTPError
		transportErr *TransportError
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &upstreamErr):
		return metrics.OutcomeUpstream
	case errors.As(err, &transportErr):
		return metrics.OutcomeTransport
	default:
		return metrics.OutcomeMalformed
	}
}
