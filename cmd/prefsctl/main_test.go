package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recprefs/internal/api"
	"recprefs/internal/blocklist"
	"recprefs/internal/client"
	apperrors "recprefs/internal/errors"
	"recprefs/internal/feed"
	"recprefs/internal/settings"
)

type readOnly struct{}

func (readOnly) LoadAll() (map[string][]byte, error) { return nil, nil }
func (readOnly) Save(string, []byte) error          { return errors.New("disk full") }
func (readOnly) Close() error                       { return nil }

func setupApp(t *testing.T, persist settings.Persistence) (*app, *bytes.Buffer, *settings.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := settings.NewStore(persist, settings.Defaults{SaveDirectory: "/tmp/recordings"}, logger)
	require.NoError(t, store.Load())
	hub := feed.NewHub(store, logger, nil)
	t.Cleanup(hub.Close)
	srv := httptest.NewServer(api.NewRouter(store, blocklist.New(store), nil, hub, logger, nil))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	return &app{
		client: client.NewClient(srv.URL, 5*time.Second, logger),
		theme:  newTheme(true),
		out:    &out,
	}, &out, store
}

func TestRun_Commands(t *testing.T) {
	tests := []struct {
		name     string
		cmd      string
		args     []string
		contains []string
	}{
		{"list", "list", nil, []string{"countdown", "saveDirectory", "/tmp/recordings"}},
		{"get", "get", []string{"encoder"}, []string{"encoder", "h264"}},
		{"set", "set", []string{"countdown", "5"}, []string{"countdown", "5"}},
		{"set color", "set", []string{"userColor", "#ff8800"}, []string{"#ff8800ff"}},
		{"reset", "reset", []string{"hideSelf"}, []string{"hideSelf", "on"}},
		{"hotkeys", "hotkeys", nil, []string{"stop", "(unset)"}},
		{"bind", "bind", []string{"stop", "cmd+ctrl+s"}, []string{"stop", "ctrl+cmd+s"}},
		{"block", "block", []string{"com.b.app", "com.a.app"}, []string{"com.a.app\ncom.b.app"}},
		{"empty blocklist", "blocklist", nil, []string{"no excluded applications"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out, _ := setupApp(t, nil)

			require.NoError(t, a.run(context.Background(), tt.cmd, tt.args, slog.Default()))

			for _, want := range tt.contains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestRun_SetPathResolvesLocally(t *testing.T) {
	a, out, store := setupApp(t, nil)
	want, err := filepath.Abs("rec")
	require.NoError(t, err)

	require.NoError(t, a.run(context.Background(), "set", []string{"saveDirectory", "./rec"}, slog.Default()))

	assert.Equal(t, want, store.SaveDirectory())
	assert.Contains(t, out.String(), want)
}

func TestRun_SetPathExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	a, _, store := setupApp(t, nil)

	require.NoError(t, a.run(context.Background(), "set", []string{"saveDirectory", "~/Movies"}, slog.Default()))

	assert.Equal(t, filepath.Join(home, "Movies"), store.SaveDirectory())
}

func TestErrorText(t *testing.T) {
	busy := fmt.Errorf("server returned 500: %w", apperrors.ErrBusy)
	assert.Equal(t, "error: server returned 500: command already in progress\nthis is usually temporary, try again\n", errorText(busy))
	assert.Equal(t, "error: invalid value\n", errorText(apperrors.ErrInvalidValue))
}

func TestRun_Errors(t *testing.T) {
	a, _, store := setupApp(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, a.run(ctx, "get", []string{"volume"}, slog.Default()), apperrors.ErrUnknownSetting)
	assert.ErrorIs(t, a.run(ctx, "set", []string{"countdown", "7"}, slog.Default()), apperrors.ErrInvalidValue)
	assert.ErrorIs(t, a.run(ctx, "block", []string{"Safari"}, slog.Default()), apperrors.ErrInvalidValue)
	assert.Error(t, a.run(ctx, "set", []string{"countdown"}, slog.Default()))
	assert.Error(t, a.run(ctx, "frobnicate", nil, slog.Default()))
	assert.Equal(t, 0, store.Int(settings.KeyCountdown))
}

func TestRun_WarningStillPrintsValue(t *testing.T) {
	a, out, store := setupApp(t, readOnly{})

	err := a.run(context.Background(), "set", []string{"withAlpha", "on"}, slog.Default())

	assert.True(t, apperrors.IsWarning(err))
	assert.Contains(t, out.String(), "withAlpha")
	assert.True(t, store.Bool(settings.KeyWithAlpha))
}

func TestRun_Unblock(t *testing.T) {
	a, out, _ := setupApp(t, nil)
	ctx := context.Background()
	require.NoError(t, a.run(ctx, "block", []string{"com.a.app", "com.b.app"}, slog.Default()))
	out.Reset()

	require.NoError(t, a.run(ctx, "unblock", []string{"com.a.app"}, slog.Default()))

	assert.Equal(t, "com.b.app\n", out.String())
}
