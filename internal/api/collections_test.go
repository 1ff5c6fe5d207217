package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recprefs/internal/settings"
)

func TestHotkeyRoutes(t *testing.T) {
	router, store := setupTestRouter(t, nil)

	t.Run("Bind", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/api/hotkeys/startWithScreen", `{"combo": "Cmd+Shift+2"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "shift+cmd+2", decode[HotkeysResponse](t, w).Hotkeys["startWithScreen"])
		assert.Equal(t, "shift+cmd+2", store.Hotkey("startWithScreen"))
	})

	t.Run("Conflict", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/api/hotkeys/stop", `{"combo": "cmd+shift+2"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_value", decode[ErrorResponse](t, w).Error)
		assert.Empty(t, store.Hotkey("stop"))
	})

	t.Run("Missing combo", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/api/hotkeys/stop", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", decode[ErrorResponse](t, w).Error)
	})

	t.Run("Unknown action", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/api/hotkeys/teleport", `{"combo": "cmd+t"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("List", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/hotkeys", "")

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[HotkeysResponse](t, w)
		assert.Len(t, resp.Hotkeys, len(settings.HotkeyActions))
	})

	t.Run("Unbind", func(t *testing.T) {
		w := doRequest(router, http.MethodDelete, "/api/hotkeys/startWithScreen", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[HotkeysResponse](t, w).Hotkeys["startWithScreen"])
	})
}

func TestBlocklistRoutes(t *testing.T) {
	router, store := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodPut, "/api/blocklist/com.apple.Safari", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(router, http.MethodPut, "/api/blocklist/com.apple.Notes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"com.apple.Notes", "com.apple.Safari"}, decode[BlocklistResponse](t, w).Apps)

	w = doRequest(router, http.MethodPut, "/api/blocklist/not%20a%20bundle", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/blocklist/com.apple.Safari", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"com.apple.Notes"}, decode[BlocklistResponse](t, w).Apps)
	assert.Equal(t, []string{"com.apple.Notes"}, store.Strings(settings.KeyExcludedApps))

	w = doRequest(router, http.MethodGet, "/api/blocklist", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"com.apple.Notes"}, decode[BlocklistResponse](t, w).Apps)
}
