package api

import (
	"time"

	"github.com/google/uuid"
)

// Prediction is a single ranked classification result. Confidence is a
// softmax probability rounded to 4 decimal places.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type PredictResponse struct {
	Success bool         `json:"success"`
	Result  []Prediction `json:"result"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type RootResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded string `json:"model_loaded"`
	Device      string `json:"device"`
	Message     string `json:"message"`
}

type InfoResponse struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Model       string `json:"model"`
	Framework   string `json:"framework"`
	Description string `json:"description"`
	Classes     int    `json:"classes"`
}

type LogEntry struct {
	Id         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	TopLabel   string    `json:"top_label"`
	Confidence float64   `json:"confidence"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

type LogsResponse struct {
	Logs []LogEntry `json:"logs"`
}
