package blocklist

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "recprefs/internal/errors"
	"recprefs/internal/settings"
)

func setupBlocklist(t *testing.T) (*Blocklist, *settings.Store) {
	t.Helper()
	db, err := settings.NewSQLiteStore(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	store := settings.NewStore(db, settings.Defaults{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, store.Load())
	t.Cleanup(func() { store.Close() })
	return New(store), store
}

func TestAddAndContains(t *testing.T) {
	bl, _ := setupBlocklist(t)

	require.NoError(t, bl.Add("com.tinyspeck.slackmacgap", "com.apple.Safari"))
	require.NoError(t, bl.Add("com.apple.Safari"))

	assert.Equal(t, []string{"com.apple.Safari", "com.tinyspeck.slackmacgap"}, bl.List())
	assert.True(t, bl.Contains("com.apple.Safari"))
	assert.False(t, bl.Contains("com.apple.Mail"))
}

func TestAdd_RejectsMalformed(t *testing.T) {
	bl, _ := setupBlocklist(t)

	err := bl.Add("com.apple.Safari", "Safari")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidValue))
	assert.Empty(t, bl.List())
}

func TestRemove(t *testing.T) {
	bl, _ := setupBlocklist(t)
	require.NoError(t, bl.Add("com.a.app", "com.b.app", "com.c.app"))

	require.NoError(t, bl.Remove("com.b.app", "com.missing.app"))

	assert.Equal(t, []string{"com.a.app", "com.c.app"}, bl.List())
}

func TestRemove_NothingToDoDoesNotNotify(t *testing.T) {
	bl, store := setupBlocklist(t)
	calls := 0
	sub, err := store.Subscribe(settings.KeyExcludedApps, func(settings.Change) { calls++ })
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bl.Remove("com.missing.app"))

	assert.Zero(t, calls)
}

func TestClear(t *testing.T) {
	bl, _ := setupBlocklist(t)
	require.NoError(t, bl.Add("com.a.app"))

	require.NoError(t, bl.Clear())

	assert.Empty(t, bl.List())
}

func TestAdd_ConcurrentEditorsShareTheStore(t *testing.T) {
	_, store := setupBlocklist(t)
	editors := []*Blocklist{New(store), New(store)}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = editors[i%2].Add(fmt.Sprintf("com.example.app%02d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Strings(settings.KeyExcludedApps), 20)
}

func TestAdd_KeepsDirectWrites(t *testing.T) {
	bl, store := setupBlocklist(t)
	require.NoError(t, store.Set(settings.KeyExcludedApps, []string{"com.direct.app"}))

	require.NoError(t, bl.Add("com.a.app"))

	assert.Equal(t, []string{"com.a.app", "com.direct.app"}, bl.List())
}

func TestAdd_AlreadyPresentDoesNotNotify(t *testing.T) {
	bl, store := setupBlocklist(t)
	require.NoError(t, bl.Add("com.a.app"))
	calls := 0
	sub, err := store.Subscribe(settings.KeyExcludedApps, func(settings.Change) { calls++ })
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bl.Add(" com.a.app"))

	assert.Zero(t, calls)
}
