//nolint:funlen,bodyclose,noctx // ok for tests
package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/basedata"
)

func sampleSnapshot(track int) *model.Snapshot {
	return &model.Snapshot{
		Timestamp: basedata.TestTime(),
		Session:   model.Session{Track: track},
		Drivers:   []model.Driver{{Name: "Norris", Position: 1}},
		Reception: map[string]uint32{"Motion": 60, "Session": 2},
	}
}

func startServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(WithAddr("127.0.0.1:0"))
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { assert.NoError(t, s.Stop()) })
	return s
}

func TestStateBeforeData(t *testing.T) {
	s := NewServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStateAndReception(t *testing.T) {
	s := NewServer()
	s.HandleSnapshot(context.Background(), sampleSnapshot(7))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got model.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 7, got.Session.Track)
	require.Len(t, got.Drivers, 1)
	assert.Equal(t, "Norris", got.Drivers[0].Name)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reception", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	var view receptionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, uint32(60), view.Counts["Motion"])
	assert.True(t, basedata.TestTime().Equal(view.Timestamp))
}

func TestCORS(t *testing.T) {
	s := NewServer(WithAllowedOrigins("http://dashboard.local"))
	s.HandleSnapshot(context.Background(), sampleSnapshot(7))

	req := httptest.NewRequest(http.MethodGet, "/state", http.NoBody)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://dashboard.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/state", http.NoBody)
	req.Header.Set("Origin", "http://other.local")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPServer(t *testing.T) {
	s := startServer(t)
	s.HandleSnapshot(context.Background(), sampleSnapshot(3))
	resp, err := http.Get("http://" + s.Addr().String() + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"track":3`)
}

func readTrack(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap.Session.Track
}

func TestWebSocket(t *testing.T) {
	s := startServer(t)
	s.HandleSnapshot(context.Background(), sampleSnapshot(1))

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, 1, readTrack(t, conn), "current state first")

	s.HandleSnapshot(context.Background(), sampleSnapshot(2))
	// the first snapshot may still be queued when the client subscribed
	track := readTrack(t, conn)
	if track == 1 {
		track = readTrack(t, conn)
	}
	assert.Equal(t, 2, track)
}

func TestWebSocketServerStop(t *testing.T) {
	s := NewServer(WithAddr("127.0.0.1:0"))
	require.NoError(t, s.Start(context.Background()))
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, s.Stop())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
