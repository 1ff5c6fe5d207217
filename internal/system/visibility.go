package system

import (
	"log/slog"
	"sync"

	"recprefs/internal/settings"
)

// ActivationPolicy decides whether the application shows a dock icon
type ActivationPolicy int

const (
	// PolicyRegular shows the dock icon
	PolicyRegular ActivationPolicy = iota
	// PolicyAccessory hides the dock icon
	PolicyAccessory
)

func (p ActivationPolicy) String() string {
	if p == PolicyAccessory {
		return "accessory"
	}
	return "regular"
}

// Surface is the part of the application UI that visibility settings drive
type Surface interface {
	SetActivationPolicy(ActivationPolicy) error
	SetMenuBarIconVisible(bool) error
}

// VisibilityController applies showOnDock and showMenubar to a Surface
type VisibilityController struct {
	store   *settings.Store
	surface Surface
	logger  *slog.Logger

	mu   sync.Mutex
	subs []*settings.Subscription
}

func NewVisibilityController(store *settings.Store, surface Surface, logger *slog.Logger) *VisibilityController {
	return &VisibilityController{store: store, surface: surface, logger: logger}
}

func (v *VisibilityController) Start() error {
	for _, name := range []settings.Name{settings.KeyShowOnDock, settings.KeyShowMenubar} {
		sub, err := v.store.Subscribe(name, func(settings.Change) { v.apply() })
		if err != nil {
			v.Stop()
			return err
		}
		v.mu.Lock()
		v.subs = append(v.subs, sub)
		v.mu.Unlock()
	}
	v.apply()
	return nil
}

func (v *VisibilityController) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, sub := range v.subs {
		sub.Close()
	}
	v.subs = nil
}

func (v *VisibilityController) apply() {
	v.mu.Lock()
	defer v.mu.Unlock()

	policy := PolicyAccessory
	if v.store.Bool(settings.KeyShowOnDock) {
		policy = PolicyRegular
	}
	menubar := v.store.Bool(settings.KeyShowMenubar)

	if err := v.surface.SetActivationPolicy(policy); err != nil {
		v.logger.Error("failed to set activation policy", "policy", policy, "error", err)
	}
	if err := v.surface.SetMenuBarIconVisible(menubar); err != nil {
		v.logger.Error("failed to update menu bar icon", "visible", menubar, "error", err)
	}
}

// LogSurface records visibility changes in the log, for hosts without a UI
type LogSurface struct {
	Logger *slog.Logger
}

func (s LogSurface) SetActivationPolicy(p ActivationPolicy) error {
	s.Logger.Info("activation policy", "policy", p.String())
	return nil
}

func (s LogSurface) SetMenuBarIconVisible(visible bool) error {
	s.Logger.Info("menu bar icon", "visible", visible)
	return nil
}
