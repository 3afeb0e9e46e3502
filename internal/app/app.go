package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ticket-alerts/internal/alerting"
	"ticket-alerts/internal/browser"
	"ticket-alerts/internal/checker"
	"ticket-alerts/internal/config"
)

// Exit codes for the single-date scan path.
const (
	ExitCodeNavTimeout = 2
	ExitCodeUnexpected = 3
)

// ExitError maps an error to a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSession(ctx context.Context) (*browser.Session, error) {
	return browser.NewSession(ctx, browser.Options{
		Headless:    a.Config.Browser.Headless,
		ExecPath:    a.Config.Browser.ExecPath,
		NavTimeout:  a.Config.Browser.NavTimeout,
		SettleDelay: a.Config.Browser.SettleDelay,
	}, a.Logger)
}

func (a *App) newFanout() *alerting.Fanout {
	var channels []alerting.Notifier
	if a.Config.Notify.Desktop.Enabled {
		channels = append(channels, alerting.NewDesktopNotifier(a.Logger))
	}
	if a.Config.Notify.Telegram.Enabled {
		tg := a.Config.Notify.Telegram
		channels = append(channels, alerting.NewTelegramNotifier(tg.BotToken, tg.ChatID, tg.APIBase, 10*time.Second, a.Logger))
	}
	if a.Config.Notify.Email.Enabled {
		em := a.Config.Notify.Email
		channels = append(channels, alerting.NewEmailNotifier(alerting.EmailOptions{
			From:     em.From,
			To:       em.To,
			SMTPHost: em.SMTPHost,
			SMTPPort: em.SMTPPort,
			Username: em.Username,
			Password: em.Password,
		}, a.Logger))
	}
	return alerting.NewFanout(channels, a.Config.Notify.Cooldown, a.Logger)
}

func (a *App) targets(urlOverride, nameOverride string) []checker.Target {
	if urlOverride != "" {
		name := nameOverride
		if name == "" {
			name = urlOverride
		}
		return []checker.Target{{Name: name, URL: urlOverride}}
	}
	cfgTargets := a.Config.Targets()
	targets := make([]checker.Target, 0, len(cfgTargets))
	for _, t := range cfgTargets {
		targets = append(targets, checker.Target{Name: t.Name, URL: t.URL})
	}
	return targets
}

func parseDates(raw []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		d, err := time.Parse("2006-01-02", r)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", r, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func availabilityNote(target checker.Target, res checker.Result) alerting.Notification {
	date := res.Date.Format("2006-01-02")
	return alerting.Notification{
		Key:     target.URL + "|" + date,
		Title:   fmt.Sprintf("Tickets available: %s", target.Display()),
		Message: fmt.Sprintf("%s appears to have availability on %s.\nBook ASAP.", target.Display(), date),
		URL:     target.URL,
	}
}
