package app

import (
	"context"
	"errors"

	"ticket-alerts/internal/alerting"
)

// NotifyTest pushes a message through every configured channel so
// credentials can be verified without waiting for real availability.
func (a *App) NotifyTest(ctx context.Context, message string) error {
	fanout := a.newFanout()
	if fanout.ChannelCount() == 0 {
		return errors.New("no notification channels configured")
	}

	if message == "" {
		message = "Test notification from ticketwatcher. If you can read this, the channel works."
	}

	fanout.Notify(ctx, alerting.Notification{
		Title:   "ticketwatcher test",
		Message: message,
	})
	return nil
}
