package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recprefs/internal/blocklist"
	apperrors "recprefs/internal/errors"
	"recprefs/internal/settings"
)

// HotkeysResponse maps every action to its combo; unbound actions map to ""
type HotkeysResponse struct {
	Hotkeys map[string]string `json:"hotkeys"`
	Warning string            `json:"warning,omitempty"`
}

// BindHotkeyRequest binds a combo such as "cmd+shift+2"
type BindHotkeyRequest struct {
	Combo string `json:"combo" binding:"required"`
}

// BlocklistResponse lists the excluded applications
type BlocklistResponse struct {
	Apps    []string `json:"apps"`
	Warning string   `json:"warning,omitempty"`
}

// SetupHotkeyRoutes registers the hotkey routes
func SetupHotkeyRoutes(apiGroup *gin.RouterGroup, store *settings.Store) {
	apiGroup.GET("/hotkeys", func(c *gin.Context) {
		c.JSON(http.StatusOK, HotkeysResponse{Hotkeys: store.Hotkeys()})
	})

	apiGroup.PUT("/hotkeys/:action", func(c *gin.Context) {
		var req BindHotkeyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request body: " + err.Error(),
			})
			return
		}
		respondHotkeys(c, store, store.BindHotkey(c.Param("action"), req.Combo))
	})

	apiGroup.DELETE("/hotkeys/:action", func(c *gin.Context) {
		respondHotkeys(c, store, store.UnbindHotkey(c.Param("action")))
	})
}

func respondHotkeys(c *gin.Context, store *settings.Store, err error) {
	resp := HotkeysResponse{Hotkeys: store.Hotkeys()}
	if err != nil {
		if !apperrors.IsWarning(err) {
			writeError(c, err)
			return
		}
		resp.Warning = apperrors.GetUserMessage(err)
	}
	c.JSON(http.StatusOK, resp)
}

// SetupBlocklistRoutes registers the excluded-apps routes
func SetupBlocklistRoutes(apiGroup *gin.RouterGroup, bl *blocklist.Blocklist) {
	apiGroup.GET("/blocklist", func(c *gin.Context) {
		c.JSON(http.StatusOK, BlocklistResponse{Apps: bl.List()})
	})

	apiGroup.PUT("/blocklist/:bundleID", func(c *gin.Context) {
		respondBlocklist(c, bl, bl.Add(c.Param("bundleID")))
	})

	apiGroup.DELETE("/blocklist/:bundleID", func(c *gin.Context) {
		respondBlocklist(c, bl, bl.Remove(c.Param("bundleID")))
	})
}

func respondBlocklist(c *gin.Context, bl *blocklist.Blocklist, err error) {
	resp := BlocklistResponse{Apps: bl.List()}
	if err != nil {
		if !apperrors.IsWarning(err) {
			writeError(c, err)
			return
		}
		resp.Warning = apperrors.GetUserMessage(err)
	}
	c.JSON(http.StatusOK, resp)
}
