package services

import (
	"context"
	"time"

	"aiindex-backend/internal/models"
	"aiindex-backend/internal/worker"
)

// Completer is the part of the model client the gateway depends on.
type Completer interface {
	Complete(ctx context.Context, model string, messages []models.ChatMessage, temperature float64, opts map[string]any) (*models.Completion, error)
}

// CompareService sends one prompt to several models and gathers one result per
// model. A failed model becomes an unsuccessful entry and never aborts the batch.
type CompareService struct {
	client      Completer
	pool        *worker.Pool
	callTimeout time.Duration
}

// NewCompareService accepts a nil client, in which case Configured reports false.
// callTimeout is the per-call upstream bound and only feeds Budget.
func NewCompareService(client Completer, pool *worker.Pool, callTimeout time.Duration) *CompareService {
	return &CompareService{client: client, pool: pool, callTimeout: callTimeout}
}

func (s *CompareService) Configured() bool {
	return s.client != nil
}

// Budget is the worst-case wall time of a fan-out over n models: one call
// timeout per wave of pool-sized batches. Zero when no call timeout is set.
func (s *CompareService) Budget(n int) time.Duration {
	if n <= 0 || s.callTimeout <= 0 {
		return 0
	}
	width := s.pool.Size()
	rounds := (n + width - 1) / width
	return time.Duration(rounds) * s.callTimeout
}

// ResolveModels returns the requested models, or the default set when none were given.
// An explicit empty list is honoured as-is.
func ResolveModels(requested []string) []string {
	if requested == nil {
		out := make([]string, len(DefaultCompareModels))
		copy(out, DefaultCompareModels)
		return out
	}
	return requested
}

// Compare runs the fan-out. Results are positioned by index in modelIDs; onResult,
// when non-nil, is called as each model finishes and may run concurrently.
func (s *CompareService) Compare(ctx context.Context, req *models.CompareRequest, modelIDs []string, onResult func(i int, res models.CompletionResult)) []models.CompletionResult {
	messages := models.UserMessage(req.Prompt)
	temperature := models.TemperatureOrDefault(req.Temperature)
	opts := req.Options()

	return worker.Map(ctx, s.pool, modelIDs, func(ctx context.Context, i int, model string) models.CompletionResult {
		res := s.completeOne(ctx, model, messages, temperature, opts)
		if onResult != nil {
			onResult(i, res)
		}
		return res
	})
}

func (s *CompareService) completeOne(ctx context.Context, model string, messages []models.ChatMessage, temperature float64, opts map[string]any) models.CompletionResult {
	if s.client == nil {
		return FailedResult(model, ErrNotConfigured)
	}

	completion, err := s.client.Complete(ctx, model, messages, temperature, opts)
	if err != nil {
		return FailedResult(model, err)
	}
	return SucceededResult(completion)
}

func SucceededResult(c *models.Completion) models.CompletionResult {
	content := c.Content
	return models.CompletionResult{
		Model:    c.Model,
		Success:  true,
		Response: &content,
		Usage:    c.Usage,
	}
}

func FailedResult(model string, err error) models.CompletionResult {
	return models.CompletionResult{
		Model:   model,
		Success: false,
		Error:   err.Error(),
	}
}
