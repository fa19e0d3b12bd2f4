package models

// WebSocket message types
const (
	WSTypeResult    = "result"
	WSTypeCompleted = "completed"
	WSTypeError     = "error"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ResultEvent is pushed as soon as one model of a comparison finishes.
type ResultEvent struct {
	Index  int              `json:"index"`
	Result CompletionResult `json:"result"`
}

type ErrorEvent struct {
	Error string `json:"error"`
}
