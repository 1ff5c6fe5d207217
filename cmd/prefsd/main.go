package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"recprefs/internal/api"
	"recprefs/internal/blocklist"
	"recprefs/internal/config"
	"recprefs/internal/feed"
	"recprefs/internal/settings"
	"recprefs/internal/system"
	"recprefs/internal/telegram"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "path to a config file (default: search ./, ./configs, user config dir)")
	pflag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, "prefsd:", err)
		os.Exit(1)
	}
}

// run starts every component and blocks until a shutdown signal. Components
// started before a failure are stopped by their deferred cleanups.
func run(configFile string) error {
	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := config.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	// Open preferences database
	db, err := settings.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open preferences database %s: %w", cfg.Store.Path, err)
	}

	store := settings.NewStore(db, settings.Defaults{SaveDirectory: cfg.Store.DefaultSaveDirectory}, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close preferences database", "error", err)
		}
	}()
	if err := store.Load(); err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	bl := blocklist.New(store)

	// Host integrations
	var notifier system.Notifier = system.LogNotifier{Logger: logger}
	if cfg.Desktop.Notifications {
		notifier = system.DesktopNotifier{Icon: cfg.Desktop.NotifyIcon}
	}

	agent, err := system.NewAgentFile(cfg.LoginItem.Label, cfg.LoginItem.Program)
	if err != nil {
		return fmt.Errorf("prepare login item: %w", err)
	}
	loginItems := system.NewLoginItemRegistrar(store, agent, notifier, logger)
	if err := loginItems.Start(); err != nil {
		return fmt.Errorf("start login item registrar: %w", err)
	}
	defer loginItems.Stop()

	visibility := system.NewVisibilityController(store, system.LogSurface{Logger: logger}, logger)
	if err := visibility.Start(); err != nil {
		return fmt.Errorf("start visibility controller: %w", err)
	}
	defer visibility.Stop()

	// Create root context with cancellation
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// WaitGroup for tracking active goroutines
	var wg sync.WaitGroup

	var server *api.Server
	if cfg.HTTP.Enabled {
		var picker api.DirectoryPicker
		if cfg.Desktop.FolderDialog {
			picker = system.NewDirectoryPicker(store, system.ZenitySelectDirectory)
		}
		hub := feed.NewHub(store, logger, cfg.HTTP.AllowOrigins)
		server = api.NewServer(cfg.HTTP, cfg.Logging.Level == "debug", store, bl, picker, hub, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "error", err)
				rootCancel()
			}
		}()
	}

	if cfg.Telegram.Enabled {
		bot, err := telegram.NewBot(cfg.Telegram, store, bl, logger)
		if err != nil {
			rootCancel()
			shutdownServer(server, logger)
			wg.Wait()
			return fmt.Errorf("create telegram bot: %w", err)
		}
		logger.Info("telegram bot authorized", "username", bot.GetBotInfo().UserName)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bot error", "error", err)
			}
		}()
	}

	logger.Info("preferences daemon started",
		"store", cfg.Store.Path,
		"http", cfg.HTTP.Enabled,
		"telegram", cfg.Telegram.Enabled,
	)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var exitErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig)
	case <-rootCtx.Done():
		logger.Warn("shutting down after a fatal component error")
		exitErr = errors.New("HTTP server stopped unexpectedly")
	}

	// Cancel root context to signal all goroutines
	rootCancel()

	shutdownTimeout := 30 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to stop HTTP server", "error", err)
		}
	}

	// Wait for graceful shutdown with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("graceful shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}
	return exitErr
}

// shutdownServer stops an HTTP server started before a later startup step failed
func shutdownServer(server *api.Server, logger *slog.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("failed to stop HTTP server", "error", err)
	}
}
