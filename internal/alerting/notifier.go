package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Notification carries one availability alert to every configured channel.
type Notification struct {
	// Key de-duplicates repeat alerts for the same (target, date) within the
	// cooldown window. Empty disables de-duplication for this notification.
	Key     string
	Title   string
	Message string
	URL     string
}

// Notifier delivers a notification over a single channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, note Notification) error
}

// Fanout dispatches a notification to every channel, best-effort: delivery
// failures are logged as warnings and swallowed, never propagated, never
// retried.
type Fanout struct {
	notifiers []Notifier
	cooldown  time.Duration
	logger    zerolog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewFanout wraps the configured channels. A zero cooldown disables
// suppression of repeat alerts.
func NewFanout(notifiers []Notifier, cooldown time.Duration, logger zerolog.Logger) *Fanout {
	return &Fanout{
		notifiers: notifiers,
		cooldown:  cooldown,
		logger:    logger.With().Str("component", "alerting").Logger(),
		lastSent:  make(map[string]time.Time),
	}
}

// ChannelCount reports how many channels are configured.
func (f *Fanout) ChannelCount() int {
	return len(f.notifiers)
}

// Notify sends the notification through every channel.
func (f *Fanout) Notify(ctx context.Context, note Notification) {
	if f.suppressed(note.Key) {
		f.logger.Debug().Str("key", note.Key).Msg("notification suppressed by cooldown")
		return
	}

	for _, n := range f.notifiers {
		if err := n.Notify(ctx, note); err != nil {
			f.logger.Warn().Err(err).Str("channel", n.Name()).Msg("notification delivery failed")
			continue
		}
		f.logger.Info().Str("channel", n.Name()).Str("title", note.Title).Msg("notification sent")
	}
}

func (f *Fanout) suppressed(key string) bool {
	if f.cooldown <= 0 || key == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if last, ok := f.lastSent[key]; ok && time.Since(last) < f.cooldown {
		return true
	}
	f.lastSent[key] = time.Now()
	return false
}
