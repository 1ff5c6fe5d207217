package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "recprefs/internal/errors"
)

// DirectoryPicker opens the folder chooser on the machine running the daemon
type DirectoryPicker interface {
	Pick(ctx context.Context) (string, error)
}

// PickResponse reports the outcome of a folder dialog
type PickResponse struct {
	Path      string `json:"path,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// SetupPickerRoutes registers POST /save-directory/pick
func SetupPickerRoutes(apiGroup *gin.RouterGroup, picker DirectoryPicker) {
	apiGroup.POST("/save-directory/pick", func(c *gin.Context) {
		path, err := picker.Pick(c.Request.Context())
		switch {
		case err == nil:
			c.JSON(http.StatusOK, PickResponse{Path: path})
		case errors.Is(err, apperrors.ErrCancelled):
			c.JSON(http.StatusOK, PickResponse{Cancelled: true})
		case apperrors.IsWarning(err):
			c.JSON(http.StatusOK, PickResponse{Path: path, Warning: apperrors.GetUserMessage(err)})
		default:
			writeError(c, err)
		}
	})
}
