// Package system connects preference changes to the host: login items,
// dock and menu bar visibility, folder selection and desktop notifications.
package system

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Notifier shows a message to the user outside of any window
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier sends native desktop notifications
type DesktopNotifier struct {
	// Icon is an optional path to an image shown with the notification
	Icon string
}

func (n DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, n.Icon)
}

// LogNotifier writes notifications to a logger, for headless hosts
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(title, message string) error {
	n.Logger.Warn(message, "title", title)
	return nil
}
