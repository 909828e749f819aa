package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsframe-go/internal/config"
	"rsframe-go/internal/types"
)

func newTestServer(t *testing.T, hooks Hooks) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Port = 9999
	cfg.Simulate = true
	srv := New(cfg, hooks, zerolog.Nop())
	handler, err := srv.Handler()
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	return resp.StatusCode
}

func TestHandleConfig(t *testing.T) {
	_, ts := newTestServer(t, Hooks{})

	var payload map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/config", &payload))
	assert.Equal(t, 9999.0, payload["port"])
	assert.Equal(t, true, payload["simulate"])
	assert.Equal(t, "1s", payload["ui_rate"])
}

func TestHandleStatusCountsClients(t *testing.T) {
	_, ts := newTestServer(t, Hooks{Status: func() map[string]any {
		return map[string]any{"frames": 12}
	}})

	var payload map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/status", &payload))
	assert.Equal(t, 12.0, payload["frames"])
	assert.Equal(t, 0.0, payload["ws_clients"])
}

func TestHandleStream(t *testing.T) {
	_, ts := newTestServer(t, Hooks{Latest: func(stream string) (types.FrameSummary, bool) {
		if stream != "infrared/2" {
			return types.FrameSummary{}, false
		}
		return types.FrameSummary{Stream: "infrared", Index: 2, Seq: 5}, true
	}})

	var summary types.FrameSummary
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/streams/infrared/2", &summary))
	assert.Equal(t, uint64(5), summary.Seq)

	var missing map[string]any
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/streams/color", &missing))
}

func TestHealthAndIndex(t *testing.T) {
	_, ts := newTestServer(t, Hooks{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "<title>rsframe viewer</title>")
}

func TestWebSocketHelloAndBroadcast(t *testing.T) {
	srv, ts := newTestServer(t, Hooks{Snapshot: func() types.UISnapshot {
		return types.UISnapshot{Type: "snapshot", Streams: map[string]types.StreamSnapshot{
			"depth": {Stats: types.StreamStats{Frames: 3}},
		}}
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages := make(chan any, 1)
	go srv.broadcast(ctx, messages)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello map[string]any
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello["type"])
	_, err = uuid.Parse(hello["session"].(string))
	assert.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "snapshot_request"}))
	var snapshot types.UISnapshot
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, uint64(3), snapshot.Streams["depth"].Stats.Frames)

	messages <- map[string]any{"type": "tick", "n": 1}
	var tick map[string]any
	require.NoError(t, conn.ReadJSON(&tick))
	assert.Equal(t, "tick", tick["type"])
}
