package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aescanero/seismo/pkg/adapters/events/memory"
	"github.com/aescanero/seismo/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clientGauge struct {
	ports.MetricsCollector
	clients atomic.Int64
}

func (g *clientGauge) IncStreamClients() { g.clients.Add(1) }
func (g *clientGauge) DecStreamClients() { g.clients.Add(-1) }

func startStreamServer(t *testing.T, origins []string) (*httptest.Server, *memory.InMemoryEventBus, *clientGauge) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	bus := memory.NewInMemoryEventBus(logger)
	gauge := &clientGauge{}

	router := gin.New()
	router.GET("/stream", NewHandler(bus, gauge, origins, logger).HandleSampleStream)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv, bus, gauge
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
}

func TestStreamForwardsSamples(t *testing.T) {
	srv, bus, gauge := startStreamServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return bus.SubscriberCount(ports.TopicAccelerometer) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, gauge.clients.Load())

	sent := ports.Event{
		ID:        "sample-1",
		Type:      ports.EventTypeSampleReceived,
		Timestamp: time.Now().UTC(),
		Data:      json.RawMessage(`{"x":1.0,"y":2.0,"z":9.8}`),
	}
	require.NoError(t, bus.Publish(context.Background(), ports.TopicAccelerometer, sent))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got ports.Event
	require.NoError(t, conn.ReadJSON(&got))

	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, sent.Type, got.Type)
	assert.JSONEq(t, string(sent.Data), string(got.Data))
}

func TestStreamUnsubscribesOnDisconnect(t *testing.T) {
	srv, bus, gauge := startStreamServer(t, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bus.SubscriberCount(ports.TopicAccelerometer) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return bus.SubscriberCount(ports.TopicAccelerometer) == 0 && gauge.clients.Load() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	srv, _, _ := startStreamServer(t, []string{"https://allowed.example"})

	header := http.Header{}
	header.Set("Origin", "https://other.example")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/stream", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	anyOrigin := originChecker([]string{"*"})
	assert.True(t, anyOrigin(req("https://x.example")))

	restricted := originChecker([]string{"https://a.example"})
	assert.True(t, restricted(req("https://a.example")))
	assert.True(t, restricted(req("")))
	assert.False(t, restricted(req("https://b.example")))
}
