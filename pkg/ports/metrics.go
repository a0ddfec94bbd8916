package ports

import "time"

// Rejection reasons recorded by MetricsCollector
const (
	RejectReasonNoData  = "no_data"
	RejectReasonInvalid = "invalid"
)

// MetricsCollector records service metrics
type MetricsCollector interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	IncSamplesAccepted(payloadBytes int)
	IncSamplesRejected(reason string)
	IncEventsPublished(topic string)
	IncEventsFailed(topic string)
	IncStreamClients()
	DecStreamClients()
}
