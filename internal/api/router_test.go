package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorlag/internal/api/handlers"
	"github.com/wonny/sectorlag/internal/marketdata"
	"github.com/wonny/sectorlag/internal/universe"
	"github.com/wonny/sectorlag/pkg/logger"
)

type noopCollector struct{}

func (noopCollector) Collect(context.Context, []string, time.Time) (marketdata.CollectResult, error) {
	return marketdata.CollectResult{}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()

	u, err := universe.Parse([]byte("sectors:\n  CHEM: [AAA, BBB]\n"))
	require.NoError(t, err)

	log := logger.NewNop()
	hub := NewHub(log)
	router := NewRouter(
		handlers.NewScanHandler(handlers.NewResultStore(), nil, log),
		handlers.NewDataHandler(noopCollector{}, u, log),
		hub,
		log,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	return srv, hub
}

func TestRouter_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestRouter_SummaryBeforeFirstScan(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/scan/summary")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/scan/summary", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHub_BroadcastsProgress(t *testing.T) {
	srv, hub := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/progress"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast("detect", 3, 7)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event ProgressEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, ProgressEvent{Stage: "detect", Done: 3, Total: 7}, event)
}

func TestHub_DropsClosedClients(t *testing.T) {
	srv, hub := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/progress"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
