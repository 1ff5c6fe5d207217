package system

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"text/template"

	apperrors "recprefs/internal/errors"
	"recprefs/internal/settings"
)

// LoginItem registers the application to start at login
type LoginItem interface {
	Register() error
	Unregister() error
	Registered() (bool, error)
}

var launchAgentTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.Program}}</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`))

var autostartTemplate = template.Must(template.New("desktop").Parse(`[Desktop Entry]
Type=Application
Name={{.Label}}
Exec={{.Program}}
X-GNOME-Autostart-enabled=true
NoDisplay=true
`))

// AgentFile is a LoginItem backed by a launchd agent plist on macOS and an
// XDG autostart entry elsewhere
type AgentFile struct {
	Label   string
	Program string
	// Path of the file to write
	Path string
	tmpl *template.Template
}

// NewAgentFile builds the login item for the current platform. An empty
// program means the running executable.
func NewAgentFile(label, program string) (*AgentFile, error) {
	if program == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		program = exe
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	if runtime.GOOS == "darwin" {
		return &AgentFile{
			Label:   label,
			Program: program,
			Path:    filepath.Join(home, "Library", "LaunchAgents", label+".plist"),
			tmpl:    launchAgentTemplate,
		}, nil
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		configDir = filepath.Join(home, ".config")
	}
	return &AgentFile{
		Label:   label,
		Program: program,
		Path:    filepath.Join(configDir, "autostart", label+".desktop"),
		tmpl:    autostartTemplate,
	}, nil
}

func (a *AgentFile) Register() error {
	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, a); err != nil {
		return fmt.Errorf("render login item: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return fmt.Errorf("create login item directory: %w", err)
	}
	if err := os.WriteFile(a.Path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write login item: %w", err)
	}
	return nil
}

func (a *AgentFile) Unregister() error {
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove login item: %w", err)
	}
	return nil
}

func (a *AgentFile) Registered() (bool, error) {
	_, err := os.Stat(a.Path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat login item: %w", err)
	}
	return true, nil
}

// LoginItemRegistrar keeps the login item in line with launchAtLogin.
// Registration failures are reported to the user and never undo the preference.
type LoginItemRegistrar struct {
	store    *settings.Store
	item     LoginItem
	notifier Notifier
	logger   *slog.Logger
	sub      *settings.Subscription
}

func NewLoginItemRegistrar(store *settings.Store, item LoginItem, notifier Notifier, logger *slog.Logger) *LoginItemRegistrar {
	return &LoginItemRegistrar{
		store:    store,
		item:     item,
		notifier: notifier,
		logger:   logger,
	}
}

// Start seeds launchAtLogin from the login item the system reports, so a
// change made in the system settings wins, then follows later changes
func (r *LoginItemRegistrar) Start() error {
	if registered, err := r.item.Registered(); err != nil {
		r.logger.Warn("login item state unknown, keeping preference", "error", err)
	} else if registered != r.store.Bool(settings.KeyLaunchAtLogin) {
		if err := r.store.Set(settings.KeyLaunchAtLogin, registered); err != nil && !apperrors.IsWarning(err) {
			return fmt.Errorf("seed launch at login: %w", err)
		}
		r.logger.Info("launch at login taken from system", "enabled", registered)
	}

	sub, err := r.store.Subscribe(settings.KeyLaunchAtLogin, func(c settings.Change) {
		enabled, _ := c.New.(bool)
		r.apply(enabled)
	})
	if err != nil {
		return err
	}
	r.sub = sub
	return nil
}

func (r *LoginItemRegistrar) Stop() {
	if r.sub != nil {
		r.sub.Close()
	}
}

func (r *LoginItemRegistrar) apply(enabled bool) {
	registered, err := r.item.Registered()
	if err != nil {
		r.fail("check", err)
		return
	}
	if registered == enabled {
		return
	}

	if enabled {
		err = r.item.Register()
	} else {
		err = r.item.Unregister()
	}
	if err != nil {
		r.fail("update", err)
		return
	}
	r.logger.Info("login item updated", "enabled", enabled)
}

func (r *LoginItemRegistrar) fail(action string, err error) {
	r.logger.Error("login item "+action+" failed", "error", err)
	if nerr := r.notifier.Notify("Launch at login", "Could not update the login item: "+err.Error()); nerr != nil {
		r.logger.Warn("failed to send notification", "error", nerr)
	}
}
