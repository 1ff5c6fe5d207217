package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recprefs/internal/blocklist"
	apperrors "recprefs/internal/errors"
	"recprefs/internal/settings"
)

const (
	allowedUser = int64(42)
	otherUser   = int64(7)
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.texts)
	return f.texts[len(f.texts)-1]
}

func setupHandler(t *testing.T) (*Handler, *fakeSender, *settings.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := settings.NewStore(nil, settings.Defaults{SaveDirectory: "/tmp/recordings"}, logger)
	require.NoError(t, store.Load())
	sender := &fakeSender{}
	h := NewHandler(sender, store, blocklist.New(store), NewWhitelist([]int64{allowedUser}, logger), logger)
	return h, sender, store
}

func commandUpdate(userID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmdLen = i
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, UserName: "tester"},
			Chat: &tgbotapi.Chat{ID: userID, Type: "private"},
			Text: text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: cmdLen},
			},
		},
	}
}

func TestHandleUpdate_Unauthorized(t *testing.T) {
	h, sender, store := setupHandler(t)

	h.HandleUpdate(context.Background(), commandUpdate(otherUser, "/set countdown 5"))

	assert.Equal(t, apperrors.ErrUnauthorized.UserMsg, sender.last(t))
	assert.Equal(t, 0, store.Int(settings.KeyCountdown))
}

func TestHandleUpdate_GroupChatIgnored(t *testing.T) {
	h, sender, _ := setupHandler(t)
	upd := commandUpdate(allowedUser, "/list")
	upd.Message.Chat = &tgbotapi.Chat{ID: -100, Type: "group"}

	h.HandleUpdate(context.Background(), upd)

	assert.Empty(t, sender.texts)
}

func TestHandleUpdate_Commands(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		contains []string
	}{
		{"help", "/help", []string{"/set <name> <value>"}},
		{"list", "/list", []string{"countdown = 0", "saveDirectory = /tmp/recordings", "excludedApps = (none)"}},
		{"get", "/get encoder", []string{"encoder = h264"}},
		{"get unknown", "/get volume", []string{"There is no setting with that name."}},
		{"get hidden", "/get lossyAudioQuality", []string{"There is no setting with that name."}},
		{"set", "/set countdown 5s", []string{"countdown = 5"}},
		{"set cascade", "/set withAlpha on", []string{"withAlpha = true", "also changed: encoder = h265", "also changed: videoFormat = mov"}},
		{"set invalid", "/set countdown 4", []string{"That value is not allowed"}},
		{"set usage", "/set countdown", []string{"Usage: /set"}},
		{"reset", "/reset countdown", []string{"countdown = 0"}},
		{"block", "/block com.apple.Safari", []string{"Excluded apps: com.apple.Safari"}},
		{"block invalid", "/block Safari", []string{"That value is not allowed"}},
		{"hotkeys", "/hotkeys", []string{"stop = (unset)", "/set hotkey.<action>"}},
		{"bind hotkey", "/set hotkey.stop Cmd+Ctrl+S", []string{"hotkey.stop = ctrl+cmd+s"}},
		{"unknown", "/frobnicate", []string{"Unknown command"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sender, _ := setupHandler(t)

			h.HandleUpdate(context.Background(), commandUpdate(allowedUser, tt.text))

			reply := sender.last(t)
			for _, want := range tt.contains {
				assert.Contains(t, reply, want)
			}
		})
	}
}

func TestHandleUpdate_SetAndUnblock(t *testing.T) {
	h, sender, store := setupHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, commandUpdate(allowedUser, "/set audioFormat flac"))
	assert.Contains(t, sender.last(t), "also changed: audioQuality = lossless")
	assert.Equal(t, settings.AudioQualityLossless, store.AudioQuality())

	h.HandleUpdate(ctx, commandUpdate(allowedUser, "/block com.a.app com.b.app"))
	h.HandleUpdate(ctx, commandUpdate(allowedUser, "/unblock com.a.app"))
	assert.Equal(t, "Excluded apps: com.b.app", sender.last(t))
}

func TestHandleUpdate_BusyUser(t *testing.T) {
	h, sender, _ := setupHandler(t)
	require.True(t, h.limiter.TryAcquire(allowedUser))

	h.HandleUpdate(context.Background(), commandUpdate(allowedUser, "/list"))

	assert.Equal(t, apperrors.ErrBusy.UserMsg, sender.last(t))
}

func TestHandleUpdate_PlainText(t *testing.T) {
	h, sender, _ := setupHandler(t)
	upd := commandUpdate(allowedUser, "hello")
	upd.Message.Entities = nil

	h.HandleUpdate(context.Background(), upd)

	assert.Contains(t, sender.last(t), "/help")
}

func TestHandleUpdate_SetReportsOnlyItsOwnChanges(t *testing.T) {
	h, sender, store := setupHandler(t)
	ctx := context.Background()
	h.HandleUpdate(ctx, commandUpdate(allowedUser, "/set withAlpha on"))

	// another client flips alpha back on while the reply is being built
	var once sync.Once
	sub, err := store.Subscribe(settings.KeyWithAlpha, func(c settings.Change) {
		if c.New == false {
			once.Do(func() {
				_ = store.Set(settings.KeyEncoder, settings.EncoderH264)
				_ = store.Set(settings.KeyWithAlpha, true)
			})
		}
	})
	require.NoError(t, err)
	defer sub.Close()

	h.HandleUpdate(ctx, commandUpdate(allowedUser, "/set withAlpha off"))

	reply := sender.last(t)
	assert.NotContains(t, reply, "also changed")
	assert.Equal(t, settings.EncoderH265, store.Encoder())
}

func TestHandleUpdate_HiddenCascadeNotReported(t *testing.T) {
	h, sender, _ := setupHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, commandUpdate(allowedUser, "/set audioFormat flac"))
	assert.NotContains(t, sender.last(t), "lossyAudioQuality")

	h.HandleUpdate(ctx, commandUpdate(allowedUser, "/reset audioQuality"))
	assert.Equal(t, "audioQuality = lossless", sender.last(t))
}

func TestErrorText_RetryHint(t *testing.T) {
	retryable := apperrors.Wrap(errors.New("database is locked"), "The setting could not be changed.", true)
	assert.Equal(t, "The setting could not be changed.\n"+retryHint, errorText(retryable))

	final := apperrors.Wrap(errors.New("boom"), "Something broke.", false)
	assert.Equal(t, "Something broke.", errorText(final))

	assert.NotContains(t, errorText(apperrors.ErrInvalidValue), retryHint)
}
