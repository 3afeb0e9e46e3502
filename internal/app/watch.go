package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"ticket-alerts/internal/scheduler"
)

// Watch runs the whole pipeline on the configured interval until
// interrupted. The first pass runs immediately rather than waiting out the
// first interval.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dates, err := parseDates(a.Config.ResolveDates(nil))
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		return fmt.Errorf("no dates configured to watch")
	}

	fanout := a.newFanout()
	if fanout.ChannelCount() == 0 {
		a.Logger.Warn().Msg("no notification channels configured; watch will only log")
	}

	targets := a.targets("", "")
	pass := func(ctx context.Context, _ time.Time) error {
		a.runTargets(ctx, targets, dates, fanout)
		return nil
	}

	a.Logger.Info().Dur("interval", a.Config.Watch.Interval).Int("targets", len(targets)).Int("dates", len(dates)).Msg("watch started")
	if err := pass(ctx, time.Now().UTC()); err != nil {
		a.Logger.Error().Err(err).Msg("initial check pass failed")
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		AlignToStart: a.Config.Watch.AlignToBucket,
		StartupDelay: a.Config.Watch.StartupDelay,
	}, a.Logger)

	err = sched.Run(ctx, pass)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.Info().Msg("watch stopped")
	return nil
}
