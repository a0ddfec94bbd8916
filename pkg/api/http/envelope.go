package http

import "time"

// TimestampLayout is ISO-8601 with microseconds and the UTC offset
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Response status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusHealthy = "healthy"
)

// Fixed messages
const (
	MessageDataReceived   = "Data received successfully"
	MessageNoData         = "No data provided"
	MessageNotFound       = "Endpoint not found"
	MessageInternalError  = "Internal server error"
	MessageServiceName    = "Seismo Cardio API"
	PathAccelerometerData = "/accelerometer-data"
	PathHealth            = "/health"
	PathStream            = "/accelerometer-data/stream"
	PathMetrics           = "/metrics"
)

// Envelope is the error response shape
type Envelope struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// IngestResponse acknowledges an accepted payload
type IngestResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
	DataReceived string `json:"data_received"`
}

// HealthResponse represents a liveness response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// InfoResponse is the service description returned from the root path
type InfoResponse struct {
	Message  string `json:"message"`
	PushData string `json:"push_data"`
	Version  string `json:"version"`
	Health   string `json:"health"`
}

// ErrorResponse is returned when the ingest body carries no data
type ErrorResponse struct {
	Error string `json:"error"`
}

func formatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
