package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/focusarcade/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	svc := NewService(DefaultConfig())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Start(ctx)
	}()

	r := chi.NewRouter()
	svc.RegisterRoutes(r)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return svc, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/display"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func waitConnected(t *testing.T, svc *Service, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return svc.Connections() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestRendererBroadcastsPlayback(t *testing.T) {
	svc, srv := newTestGateway(t)
	conn := dial(t, srv)
	waitConnected(t, svc, 1)

	// Empty state replay.
	assert.Equal(t, Frame{Type: FrameTypeAssets}, readFrame(t, conn))

	r := svc.Renderer()
	loadout := models.Loadout{Image: "data:image/gif;base64,R0lG", Audio: "data:audio/mpeg;base64,SUQz"}
	r.SetAssets(loadout)
	r.Show("Level up")
	r.RestartVisual()
	require.NoError(t, r.PlayAudio())
	r.Hide()
	r.StopAudio()

	want := []Frame{
		{Type: FrameTypeAssets, Image: loadout.Image, Audio: loadout.Audio},
		{Type: FrameTypeShow, Message: "Level up"},
		{Type: FrameTypeRestart},
		{Type: FrameTypePlayAudio},
		{Type: FrameTypeHide},
		{Type: FrameTypeStopAudio},
	}
	for _, w := range want {
		assert.Equal(t, w, readFrame(t, conn))
	}
}

func TestLateConnectionReceivesCurrentState(t *testing.T) {
	svc, srv := newTestGateway(t)
	r := svc.Renderer()
	r.SetAssets(models.Loadout{Image: "data:image/gif;base64,R0lG"})
	r.Show("mid-show")

	conn := dial(t, srv)

	assert.Equal(t, Frame{Type: FrameTypeAssets, Image: "data:image/gif;base64,R0lG"}, readFrame(t, conn))
	assert.Equal(t, Frame{Type: FrameTypeShow, Message: "mid-show"}, readFrame(t, conn))
	assert.Equal(t, Frame{Type: FrameTypeRestart}, readFrame(t, conn))
}

func TestPlayAudioErrors(t *testing.T) {
	svc, srv := newTestGateway(t)
	r := svc.Renderer()

	assert.ErrorIs(t, r.PlayAudio(), ErrNoAudio)

	r.SetAssets(models.Loadout{Audio: "data:audio/mpeg;base64,SUQz"})
	assert.ErrorIs(t, r.PlayAudio(), ErrNoDisplays)

	dial(t, srv)
	waitConnected(t, svc, 1)
	assert.NoError(t, r.PlayAudio())
}

func TestHideClearsReplayState(t *testing.T) {
	svc, _ := newTestGateway(t)
	r := svc.Renderer()

	r.Show("bye")
	r.Hide()

	state := r.OverlayState()
	assert.False(t, state.Showing)
	assert.Empty(t, state.Message)
	assert.Equal(t, []Frame{{Type: FrameTypeAssets}}, state.Frames())
}

func TestConnectionStats(t *testing.T) {
	svc, srv := newTestGateway(t)
	dial(t, srv)
	dial(t, srv)
	waitConnected(t, svc, 2)

	resp, err := http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats ConnectionStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.TotalConnections)
	assert.Len(t, stats.Connections, 2)
}

func TestDisconnectUnregisters(t *testing.T) {
	svc, srv := newTestGateway(t)
	conn := dial(t, srv)
	waitConnected(t, svc, 1)

	require.NoError(t, conn.Close())
	waitConnected(t, svc, 0)
}
