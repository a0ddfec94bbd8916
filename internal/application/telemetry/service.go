package telemetry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/seismo/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Receipt describes an accepted payload
type Receipt struct {
	ID         string
	ReceivedAt time.Time
	Size       int
	// Payload is the compacted input
	Payload []byte
	// Pretty is the input indented by four spaces
	Pretty string
}

// Service accepts accelerometer payloads
type Service struct {
	eventBus ports.EventBus
	metrics  ports.MetricsCollector
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new telemetry service
func NewService(eventBus ports.EventBus, metrics ports.MetricsCollector, logger *zap.Logger) *Service {
	return &Service{
		eventBus: eventBus,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Accept parses body and returns a receipt. It returns ErrNoData when the
// body is blank or holds an empty value, and a *DecodeError when the body is
// not valid JSON. Publishing the sample event never fails the call.
func (s *Service) Accept(ctx context.Context, body []byte) (*Receipt, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		s.metrics.IncSamplesRejected(ports.RejectReasonNoData)
		return nil, ErrNoData
	}

	value, err := decodePayload(trimmed)
	if err != nil {
		s.metrics.IncSamplesRejected(ports.RejectReasonInvalid)
		return nil, err
	}

	if isEmpty(value) {
		s.metrics.IncSamplesRejected(ports.RejectReasonNoData)
		return nil, ErrNoData
	}

	pretty, err := prettyPrint(trimmed)
	if err != nil {
		s.metrics.IncSamplesRejected(ports.RejectReasonInvalid)
		return nil, fmt.Errorf("failed to format payload: %w", err)
	}

	payload, err := compact(trimmed)
	if err != nil {
		s.metrics.IncSamplesRejected(ports.RejectReasonInvalid)
		return nil, fmt.Errorf("failed to compact payload: %w", err)
	}

	receipt := &Receipt{
		ID:         uuid.NewString(),
		ReceivedAt: s.now(),
		Size:       len(body),
		Payload:    payload,
		Pretty:     pretty,
	}

	s.metrics.IncSamplesAccepted(receipt.Size)
	s.announce(ctx, receipt)

	s.logger.Debug("accelerometer data received",
		zap.String("sample_id", receipt.ID),
		zap.Int("bytes", receipt.Size))

	return receipt, nil
}

// announce publishes the sample for live consumers
func (s *Service) announce(ctx context.Context, receipt *Receipt) {
	// The sample is already accepted; a client hanging up must not drop it.
	ctx = context.WithoutCancel(ctx)

	event := ports.Event{
		ID:        receipt.ID,
		Type:      ports.EventTypeSampleReceived,
		Timestamp: receipt.ReceivedAt,
		Data:      receipt.Payload,
	}

	if err := s.eventBus.Publish(ctx, ports.TopicAccelerometer, event); err != nil {
		s.metrics.IncEventsFailed(ports.TopicAccelerometer)
		s.logger.Warn("failed to publish sample event",
			zap.String("sample_id", receipt.ID),
			zap.Error(err))
		return
	}
	s.metrics.IncEventsPublished(ports.TopicAccelerometer)
}

// IsNoData reports whether err means the request carried no data
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}
