package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"ticket-alerts/internal/alerting"
	"ticket-alerts/internal/checker"
	"ticket-alerts/internal/classify"
)

// CheckOptions configure one multi-date batch check.
type CheckOptions struct {
	Dates []string
	URL   string
	Name  string
}

// Check runs the cell-level classifier for every requested date against
// every target and prints the summary table. The batch entry point never
// fails the process on navigation problems: they are logged, the summary
// (possibly empty) is still printed, and the exit code stays zero.
func (a *App) Check(ctx context.Context, opts CheckOptions) error {
	dates, err := parseDates(a.Config.ResolveDates(opts.Dates))
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		return fmt.Errorf("no dates to check; use --dates or configure check.dates")
	}

	a.runTargets(ctx, a.targets(opts.URL, opts.Name), dates, a.newFanout())
	return nil
}

// runTargets checks every (target, date) pair over one browser session per
// target, prints the per-target summaries, and dispatches notifications for
// available dates.
func (a *App) runTargets(ctx context.Context, targets []checker.Target, dates []time.Time, fanout *alerting.Fanout) {
	for _, target := range targets {
		a.Logger.Info().Str("target", target.Display()).Int("dates", len(dates)).Msg("checking target")

		results := a.checkTarget(ctx, target, dates)

		fmt.Fprintf(os.Stdout, "\n%s\n", target.Display())
		checker.WriteSummary(os.Stdout, results)

		for _, res := range results {
			if res.Verdict == classify.Available {
				fanout.Notify(ctx, availabilityNote(target, res))
			}
		}
	}
}

// checkTarget opens a fresh browser session for one target so a wedged
// session on one museum cannot poison the next.
func (a *App) checkTarget(ctx context.Context, target checker.Target, dates []time.Time) []checker.Result {
	session, err := a.newSession(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Str("target", target.Display()).Msg("browser start failed")
		return nil
	}
	defer session.Close()

	results, err := checker.New(session, a.Config.Check.ScreenshotDir, a.Logger).CheckDates(target, dates)
	if err != nil {
		a.Logger.Error().Err(err).Str("target", target.Display()).Msg("check run failed")
		return nil
	}
	return results
}
