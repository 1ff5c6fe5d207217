package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "recprefs/internal/errors"
	"recprefs/internal/settings"
)

// SettingResponse describes one setting and its current value
type SettingResponse struct {
	Name    settings.Name `json:"name"`
	Kind    string        `json:"kind"`
	Value   any           `json:"value"`
	Default any           `json:"default"`
	Choices []any         `json:"choices,omitempty"`
	// Warning is set when the change was applied but could not be saved
	Warning string `json:"warning,omitempty"`
}

// SettingListResponse lists every user-visible setting in registry order
type SettingListResponse struct {
	Settings []SettingResponse `json:"settings"`
}

// UpdateSettingRequest carries either a JSON value or text to parse.
// Text accepts the same forms as the command line, e.g. "on" or "#ff0000".
type UpdateSettingRequest struct {
	Value json.RawMessage `json:"value,omitempty"`
	Text  *string         `json:"text,omitempty"`
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// SettingsHandler serves the settings resource
type SettingsHandler struct {
	store *settings.Store
}

func NewSettingsHandler(store *settings.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// SetupSettingsRoutes registers the settings routes
func SetupSettingsRoutes(apiGroup *gin.RouterGroup, store *settings.Store) {
	handler := NewSettingsHandler(store)
	apiGroup.GET("/settings", handler.List)
	apiGroup.GET("/settings/:name", handler.Get)
	apiGroup.PUT("/settings/:name", handler.Update)
	apiGroup.DELETE("/settings/:name", handler.Reset)
}

func (h *SettingsHandler) describe(def settings.Definition, value any) SettingResponse {
	return SettingResponse{
		Name:    def.Name,
		Kind:    def.Kind.String(),
		Value:   value,
		Default: def.Default,
		Choices: def.Choices,
	}
}

// List handles GET /settings
func (h *SettingsHandler) List(c *gin.Context) {
	snapshot := h.store.Snapshot()
	defs := settings.Definitions()

	resp := SettingListResponse{Settings: make([]SettingResponse, 0, len(defs))}
	for _, def := range defs {
		resp.Settings = append(resp.Settings, h.describe(def, snapshot[def.Name]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /settings/:name
func (h *SettingsHandler) Get(c *gin.Context) {
	def, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.describe(def, h.store.Get(def.Name)))
}

// Update handles PUT /settings/:name
func (h *SettingsHandler) Update(c *gin.Context) {
	def, ok := h.lookup(c)
	if !ok {
		return
	}

	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	var (
		value any
		err   error
	)
	switch {
	case req.Text != nil:
		value, err = settings.ParseValue(def.Name, *req.Text)
	case len(req.Value) > 0:
		value, err = settings.DecodeJSON(def.Name, req.Value)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body needs either value or text",
		})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	h.respondApplied(c, def, h.store.Set(def.Name, value))
}

// Reset handles DELETE /settings/:name
func (h *SettingsHandler) Reset(c *gin.Context) {
	def, ok := h.lookup(c)
	if !ok {
		return
	}
	h.respondApplied(c, def, h.store.Reset(def.Name))
}

func (h *SettingsHandler) respondApplied(c *gin.Context, def settings.Definition, err error) {
	resp := h.describe(def, h.store.Get(def.Name))
	if err != nil {
		if !apperrors.IsWarning(err) {
			writeError(c, err)
			return
		}
		_ = c.Error(err)
		resp.Warning = apperrors.GetUserMessage(err)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SettingsHandler) lookup(c *gin.Context) (settings.Definition, bool) {
	name := settings.Name(c.Param("name"))
	def, ok := settings.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_setting",
			Message: "There is no setting named " + string(name),
		})
		return settings.Definition{}, false
	}
	return def, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnknownSetting):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown_setting", Message: err.Error()})
	case errors.Is(err, apperrors.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_value", Message: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "internal_error",
			Message:   apperrors.GetUserMessage(err),
			Retryable: apperrors.IsRetryable(err),
		})
	}
}
