package models

import "encoding/json"

// Message roles understood by the upstream provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultTemperature is used when a request does not specify one.
const DefaultTemperature = 0.7

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a single-turn conversation from a prompt.
func UserMessage(content string) []ChatMessage {
	return []ChatMessage{{Role: RoleUser, Content: content}}
}

// ChatRequest is the payload sent to POST /api/chat.
type ChatRequest struct {
	Message     string   `json:"message" validate:"notblank"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
}

// ChatResponse is the successful reply of POST /api/chat.
type ChatResponse struct {
	Success  bool            `json:"success"`
	Model    string          `json:"model"`
	Response string          `json:"response"`
	Usage    json.RawMessage `json:"usage"`
}

// CompareRequest is the payload sent to POST /api/compare.
type CompareRequest struct {
	Prompt      string   `json:"prompt" validate:"notblank"`
	Models      []string `json:"models,omitempty" validate:"omitempty,max=10,dive,notblank"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
}

// CompareResponse carries one result per requested model, in request order.
type CompareResponse struct {
	Success bool               `json:"success"`
	Prompt  string             `json:"prompt"`
	Results []CompletionResult `json:"results"`
}

// CompletionResult is the normalized outcome of a single model call.
// Response and Usage are set when Success is true, Error otherwise.
type CompletionResult struct {
	Model    string          `json:"model"`
	Success  bool            `json:"success"`
	Response *string         `json:"response,omitempty"`
	Usage    json.RawMessage `json:"usage,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Completion is what the model client extracts from an upstream reply.
type Completion struct {
	Model   string
	Content string
	Usage   json.RawMessage
}

// Options returns the extra upstream parameters carried by the request.
func (r *ChatRequest) Options() map[string]any {
	return extraOptions(r.MaxTokens)
}

// Options returns the extra upstream parameters carried by the request.
func (r *CompareRequest) Options() map[string]any {
	return extraOptions(r.MaxTokens)
}

func extraOptions(maxTokens *int) map[string]any {
	if maxTokens == nil {
		return nil
	}
	return map[string]any{"max_tokens": *maxTokens}
}

// TemperatureOrDefault resolves an optional temperature.
func TemperatureOrDefault(t *float64) float64 {
	if t == nil {
		return DefaultTemperature
	}
	return *t
}
