package models

import "encoding/json"

// FreeModel describes an entry of the static free-tier catalog.
type FreeModel struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Provider      string `json:"provider" yaml:"provider"`
	ContextWindow int    `json:"context_window" yaml:"context_window"`
	BestFor       string `json:"best_for" yaml:"best_for"`
}

// FreeModelsResponse is the reply of GET /api/models/free.
type FreeModelsResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Models  []FreeModel `json:"models"`
}

// ModelInfo is one upstream model listing entry, forwarded as-is.
type ModelInfo = json.RawMessage

// ModelListResponse is the reply of GET /api/models.
type ModelListResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Models  []ModelInfo `json:"models"`
}

// StatusResponse is the reply of GET /.
type StatusResponse struct {
	Status               string `json:"status"`
	App                  string `json:"app"`
	OpenRouterConfigured bool   `json:"openrouter_configured"`
}

// HealthResponse is the reply of GET /api/health.
type HealthResponse struct {
	Status     string           `json:"status"`
	OpenRouter OpenRouterHealth `json:"openrouter"`
	CORS       CORSHealth       `json:"cors"`
}

type OpenRouterHealth struct {
	Configured   bool   `json:"configured"`
	APIURL       string `json:"api_url"`
	DefaultModel string `json:"default_model"`
}

type CORSHealth struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}
