package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recprefs/internal/settings"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupHub(t *testing.T) (*settings.Store, *Hub, string) {
	t.Helper()
	store := settings.NewStore(nil, settings.Defaults{SaveDirectory: "/tmp/recordings"}, testLogger())
	require.NoError(t, store.Load())
	hub := NewHub(store, testLogger(), nil)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return store, hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_HelloThenChanges(t *testing.T) {
	store, hub, url := setupHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readMessage(t, conn)
	assert.Equal(t, TypeHello, hello.Type)
	assert.NotEmpty(t, hello.ClientID)
	assert.JSONEq(t, `"h264"`, string(hello.Settings[settings.KeyEncoder]))
	assert.JSONEq(t, `"/tmp/recordings"`, string(hello.Settings[settings.KeySaveDirectory]))
	assert.NotContains(t, hello.Settings, settings.KeyLossyAudioQuality)
	waitForClients(t, hub, 1)

	require.NoError(t, store.Set(settings.KeyWithAlpha, true))

	got := []Message{readMessage(t, conn), readMessage(t, conn), readMessage(t, conn)}
	assert.Equal(t, settings.KeyWithAlpha, got[0].Name)
	assert.Equal(t, settings.KeyEncoder, got[1].Name)
	assert.Equal(t, settings.KeyVideoFormat, got[2].Name)
	for _, m := range got {
		assert.Equal(t, TypeChanged, m.Type)
		assert.Equal(t, settings.KeyWithAlpha, m.Cause)
	}

	v, err := got[1].Decode()
	require.NoError(t, err)
	assert.Equal(t, settings.EncoderH265, v)
}

func TestHub_ColorValueDecodes(t *testing.T) {
	store, hub, url := setupHub(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	color := settings.Color{R: 0.5, G: 0.25, B: 1, A: 1}
	require.NoError(t, store.Set(settings.KeyUserColor, color))

	msg := readMessage(t, conn)
	v, err := msg.Decode()
	require.NoError(t, err)
	assert.Equal(t, color, v)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	_, hub, url := setupHub(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	conn.Close()

	waitForClients(t, hub, 0)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	_, _, url := setupHub(t)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFollow(t *testing.T) {
	store, hub, url := setupHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan Message, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Follow(ctx, url, testLogger(), func(m Message) { msgs <- m })
	}()

	hello := <-msgs
	assert.Equal(t, TypeHello, hello.Type)
	waitForClients(t, hub, 1)

	require.NoError(t, store.Set(settings.KeyCountdown, 5))
	select {
	case m := <-msgs:
		assert.Equal(t, settings.KeyCountdown, m.Name)
		assert.JSONEq(t, `5`, string(m.Value))
	case <-time.After(5 * time.Second):
		t.Fatal("no change received")
	}

	cancel()
	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestFollow_ServerCloseReturnsNil(t *testing.T) {
	_, hub, url := setupHub(t)

	errCh := make(chan error, 1)
	ready := make(chan struct{}, 1)
	go func() {
		errCh <- Follow(context.Background(), url, testLogger(), func(m Message) {
			if m.Type == TypeHello {
				ready <- struct{}{}
			}
		})
	}()
	<-ready
	waitForClients(t, hub, 1)

	hub.Close()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return after server close")
	}
}
