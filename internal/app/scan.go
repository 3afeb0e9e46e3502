package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ticket-alerts/internal/browser"
	"ticket-alerts/internal/checker"
	"ticket-alerts/internal/classify"
)

// ScanOptions configure the single-date page-text check.
type ScanOptions struct {
	Date string
	URL  string
}

// Scan runs the degraded page-wide text classification for one date.
// Navigation failure exits with code 2, anything else unexpected with 3;
// a completed scan exits 0 regardless of the verdict.
func (a *App) Scan(ctx context.Context, opts ScanOptions) error {
	raw := opts.Date
	if raw == "" {
		if resolved := a.Config.ResolveDates(nil); len(resolved) > 0 {
			raw = resolved[0]
		}
	}
	dates, err := parseDates([]string{raw})
	if err != nil {
		return err
	}
	date := dates[0]

	targets := a.targets(opts.URL, "")
	target := targets[0]
	a.Logger.Info().Str("target", target.Display()).Str("date", raw).Msg("scanning page text")

	session, err := a.newSession(ctx)
	if err != nil {
		return &ExitError{Code: ExitCodeUnexpected, Err: err}
	}
	defer session.Close()

	res, err := checker.New(session, a.Config.Check.ScreenshotDir, a.Logger).CheckPage(target, date)
	if err != nil {
		if errors.Is(err, browser.ErrNavigation) {
			return &ExitError{Code: ExitCodeNavTimeout, Err: err}
		}
		return &ExitError{Code: ExitCodeUnexpected, Err: err}
	}

	fmt.Fprintf(os.Stdout, "%s  %s  %s\n", res.Date.Format("2006-01-02"), res.Verdict, res.Evidence)

	if res.Verdict == classify.Available {
		a.newFanout().Notify(ctx, availabilityNote(target, res))
	}
	return nil
}
