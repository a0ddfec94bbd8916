package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/seismo/pkg/adapters/events/memory"
	"github.com/aescanero/seismo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingMetrics struct {
	mu        sync.Mutex
	accepted  int
	rejected  map[string]int
	published int
	failed    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{rejected: make(map[string]int)}
}

func (m *recordingMetrics) ObserveHTTPRequest(string, string, int, time.Duration) {}
func (m *recordingMetrics) IncSamplesAccepted(int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted++
}
func (m *recordingMetrics) IncSamplesRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}
func (m *recordingMetrics) IncEventsPublished(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published++
}
func (m *recordingMetrics) IncEventsFailed(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}
func (m *recordingMetrics) IncStreamClients() {}
func (m *recordingMetrics) DecStreamClients() {}

type failingBus struct{}

func (failingBus) Publish(context.Context, string, ports.Event) error {
	return errors.New("redis down")
}
func (failingBus) Subscribe(context.Context, string, ports.EventHandler) error { return nil }
func (failingBus) Close() error                                                 { return nil }

func newTestService(t *testing.T) (*Service, *memory.InMemoryEventBus, *recordingMetrics) {
	t.Helper()
	bus := memory.NewInMemoryEventBus(zaptest.NewLogger(t))
	metrics := newRecordingMetrics()
	return NewService(bus, metrics, zaptest.NewLogger(t)), bus, metrics
}

func TestAcceptReturnsPrettyEcho(t *testing.T) {
	svc, _, metrics := newTestService(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	body := []byte(`{"x":1.0,"y":2.0,"z":9.8}`)
	receipt, err := svc.Accept(context.Background(), body)
	require.NoError(t, err)

	assert.Equal(t, "{\n    \"x\": 1.0,\n    \"y\": 2.0,\n    \"z\": 9.8\n}", receipt.Pretty)
	assert.JSONEq(t, string(body), receipt.Pretty)
	assert.Equal(t, fixed, receipt.ReceivedAt)
	assert.Equal(t, len(body), receipt.Size)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, 1, metrics.accepted)
	assert.Equal(t, 1, metrics.published)
}

func TestAcceptPreservesKeyOrderAndNesting(t *testing.T) {
	svc, _, _ := newTestService(t)

	body := []byte(`{"z":[1,2,{"b":null,"a":[]}],"a":{}}`)
	receipt, err := svc.Accept(context.Background(), body)
	require.NoError(t, err)

	want := "{\n" +
		"    \"z\": [\n" +
		"        1,\n" +
		"        2,\n" +
		"        {\n" +
		"            \"b\": null,\n" +
		"            \"a\": []\n" +
		"        }\n" +
		"    ],\n" +
		"    \"a\": {}\n" +
		"}"
	assert.Equal(t, want, receipt.Pretty)
}

func TestAcceptEscapesNonASCII(t *testing.T) {
	svc, _, _ := newTestService(t)

	receipt, err := svc.Accept(context.Background(), []byte(`{"unit":"m/s²","tag":"😀"}`))
	require.NoError(t, err)

	assert.Contains(t, receipt.Pretty, `"m/s\u00b2"`)
	assert.Contains(t, receipt.Pretty, `"\ud83d\ude00"`)
	assert.NotContains(t, receipt.Pretty, "²")

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(receipt.Pretty), &decoded))
	assert.Equal(t, "m/s²", decoded["unit"])
	assert.Equal(t, "😀", decoded["tag"])
}

func TestAcceptKeepsDuplicateKeys(t *testing.T) {
	svc, _, _ := newTestService(t)

	receipt, err := svc.Accept(context.Background(), []byte(`{"a":1,"a":2}`))
	require.NoError(t, err)

	assert.Equal(t, "{\n    \"a\": 1,\n    \"a\": 2\n}", receipt.Pretty)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal([]byte(receipt.Pretty), &decoded))
	assert.Equal(t, map[string]int{"a": 2}, decoded)
}

func TestAcceptNonEmptyScalarsAndArrays(t *testing.T) {
	for _, body := range []string{`1`, `-0.5`, `true`, `"x"`, `[0]`, `[{}]`, `{"a":null}`, "  \n[1, 2]\t"} {
		t.Run(body, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			receipt, err := svc.Accept(context.Background(), []byte(body))
			require.NoError(t, err)
			assert.JSONEq(t, body, receipt.Pretty)
		})
	}
}

func TestAcceptRejectsEmptyValues(t *testing.T) {
	for _, body := range []string{``, `   `, "\n\t", `{}`, `[]`, `""`, `0`, `0.0`, `-0`, `0e10`, `false`, `null`, ` { } `} {
		t.Run(body, func(t *testing.T) {
			svc, bus, metrics := newTestService(t)

			published := 0
			require.NoError(t, bus.Subscribe(context.Background(), ports.TopicAccelerometer, func(context.Context, ports.Event) error {
				published++
				return nil
			}))

			receipt, err := svc.Accept(context.Background(), []byte(body))
			assert.Nil(t, receipt)
			assert.ErrorIs(t, err, ErrNoData)
			assert.True(t, IsNoData(err))
			assert.Equal(t, 1, metrics.rejected[ports.RejectReasonNoData])
			assert.Zero(t, published)
		})
	}
}

func TestAcceptRejectsInvalidJSON(t *testing.T) {
	for _, body := range []string{`{`, `{"x":}`, `not json`, `{"x":1} {"y":2}`, `1 2`, `[1,]`, `{'x':1}`} {
		t.Run(body, func(t *testing.T) {
			svc, _, metrics := newTestService(t)

			receipt, err := svc.Accept(context.Background(), []byte(body))
			assert.Nil(t, receipt)
			require.Error(t, err)

			var decErr *DecodeError
			assert.ErrorAs(t, err, &decErr)
			assert.False(t, IsNoData(err))
			assert.Contains(t, err.Error(), "failed to decode JSON object")
			assert.Equal(t, 1, metrics.rejected[ports.RejectReasonInvalid])
		})
	}
}

func TestAcceptPublishesSampleEvent(t *testing.T) {
	svc, bus, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []ports.Event
	require.NoError(t, bus.Subscribe(ctx, ports.TopicAccelerometer, func(_ context.Context, ev ports.Event) error {
		got = append(got, ev)
		return nil
	}))

	receipt, err := svc.Accept(ctx, []byte("{ \"x\" : 1.0 }"))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, receipt.ID, got[0].ID)
	assert.Equal(t, ports.EventTypeSampleReceived, got[0].Type)
	assert.Equal(t, `{"x":1.0}`, string(got[0].Data))
}

func TestAcceptSurvivesPublishFailure(t *testing.T) {
	metrics := newRecordingMetrics()
	svc := NewService(failingBus{}, metrics, zaptest.NewLogger(t))

	receipt, err := svc.Accept(context.Background(), []byte(`{"x":1}`))
	require.NoError(t, err)
	assert.NotNil(t, receipt)
	assert.Equal(t, 1, metrics.failed)
	assert.Equal(t, 0, metrics.published)
}
