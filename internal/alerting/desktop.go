package alerting

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// DesktopNotifier raises a local toast notification.
type DesktopNotifier struct {
	logger zerolog.Logger
}

// NewDesktopNotifier constructs the desktop channel.
func NewDesktopNotifier(logger zerolog.Logger) *DesktopNotifier {
	return &DesktopNotifier{logger: logger.With().Str("component", "alert_desktop").Logger()}
}

// Name implements Notifier.
func (n *DesktopNotifier) Name() string { return "desktop" }

// Notify shows the toast. Only useful when the checker runs on a machine
// with a desktop session.
func (n *DesktopNotifier) Notify(_ context.Context, note Notification) error {
	if err := beeep.Notify(note.Title, note.Message, ""); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

var _ Notifier = (*DesktopNotifier)(nil)
