// Package api exposes the preferences store over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"recprefs/internal/blocklist"
	"recprefs/internal/config"
	"recprefs/internal/feed"
	"recprefs/internal/settings"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status      string `json:"status"`
	Time        string `json:"time"`
	FeedClients int    `json:"feed_clients"`
}

// Server is the HTTP surface of the daemon
type Server struct {
	cfg    config.HTTPConfig
	store  *settings.Store
	hub    *feed.Hub
	logger *slog.Logger
	router *gin.Engine
	server *http.Server
}

func NewServer(cfg config.HTTPConfig, debug bool, store *settings.Store, bl *blocklist.Blocklist, picker DirectoryPicker, hub *feed.Hub, logger *slog.Logger) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{
		cfg:    cfg,
		store:  store,
		hub:    hub,
		logger: logger,
		router: NewRouter(store, bl, picker, hub, logger, cfg.AllowOrigins),
	}
}

// NewRouter builds the Gin engine with middleware and routes. The folder
// dialog route is only registered when picker is non-nil.
func NewRouter(store *settings.Store, bl *blocklist.Blocklist, picker DirectoryPicker, hub *feed.Hub, logger *slog.Logger, allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())
	if len(allowOrigins) > 0 {
		router.Use(cors.New(corsConfig(allowOrigins)))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:      "ok",
			Time:        time.Now().UTC().Format(time.RFC3339),
			FeedClients: hub.Clients(),
		})
	})

	apiGroup := router.Group("/api")
	SetupSettingsRoutes(apiGroup, store)
	SetupHotkeyRoutes(apiGroup, store)
	SetupBlocklistRoutes(apiGroup, bl)
	if picker != nil {
		SetupPickerRoutes(apiGroup, picker)
	}
	apiGroup.GET("/ws", gin.WrapH(hub))

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Start serves until Shutdown; it returns http.ErrServerClosed after a clean shutdown
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("starting HTTP server", "addr", s.cfg.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and disconnects feed clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
