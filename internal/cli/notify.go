package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/habitstore"
	"github.com/julianstephens/habitflow/internal/keyring"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/notifier"
	"github.com/julianstephens/habitflow/internal/scheduler"
	"github.com/julianstephens/habitflow/internal/storage"
)

// NewSink builds the notification sink named in the config. dryRun
// forces the stdout sink.
func (c *Context) NewSink(dryRun bool) (notifier.Sink, error) {
	if dryRun {
		return notifier.NewWriter(c.Out), nil
	}
	switch c.Config.Notifications.Sink {
	case "stdout":
		return notifier.NewWriter(c.Out), nil
	case "telegram":
		token, err := keyring.Get(keyring.TelegramToken)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no telegram token found, run 'habitflow keyring telegram <token>' first")
			}
			return nil, err
		}
		return notifier.NewTelegram(token, c.Config.Notifications.TelegramChatID)
	default:
		return notifier.NewTray(), nil
	}
}

// NotifyCmd runs the reminder daemon: it keeps reminders scheduled for
// today's habits, runs the rollover at midnight and reloads the store
// when another process writes to it.
type NotifyCmd struct {
	DryRun bool `help:"Print notifications to stdout instead of sending them."`
}

func (c *NotifyCmd) Run(ctx *Context) error {
	if !ctx.Config.Notifications.Enabled && !c.DryRun {
		fmt.Fprintln(ctx.Out, "Notifications are disabled in the config.")
		return nil
	}

	sink, err := ctx.NewSink(c.DryRun)
	if err != nil {
		return err
	}
	cr := scheduler.NewCron(ctx.Location, notifier.WithRetry(sink))

	hs, err := ctx.OpenHabits(cr)
	if err != nil {
		return err
	}
	defer hs.Close()

	runCtx, cancel := context.WithCancel(ctx.Base)
	defer cancel()

	if err := c.scheduleJobs(runCtx, ctx, cr, hs); err != nil {
		return err
	}

	cr.Start()
	defer cr.Stop()

	log := logger.With("component", "notify")
	log.Info("Reminder daemon started", "sink", sink.Name(), "store", ctx.Store.GetConfigPath(), "reminders", len(cr.Reminders()))
	fmt.Fprintf(ctx.Out, "Watching %d habits, %d reminders scheduled today (sink: %s)\n",
		len(hs.Habits(runCtx)), len(cr.Reminders()), sink.Name())
	if r, at, ok := cr.Upcoming(); ok {
		fmt.Fprintf(ctx.Out, "Next reminder: %s at %s\n", r.Body, at.In(ctx.Location).Format("Mon 15:04"))
	}

	<-runCtx.Done()
	log.Info("Reminder daemon stopping")
	return nil
}

func (c *NotifyCmd) scheduleJobs(runCtx context.Context, ctx *Context, cr *scheduler.Cron, hs *habitstore.Store) error {
	log := logger.With("component", "notify")

	if _, err := cr.ScheduleDaily("00:00", func() {
		res, err := hs.Rollover(runCtx)
		if err != nil {
			log.Error("Midnight rollover failed", "error", err)
			return
		}
		if res.Changed {
			ctx.PerformAutomaticBackup()
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule rollover: %w", err)
	}

	reload := func() {
		if err := hs.Reload(runCtx); err != nil {
			log.Warn("Reload failed", "error", err)
		}
	}

	if ctx.IsFileStore() {
		path := ctx.Store.GetConfigPath()
		if dir, ok := badgerDir(ctx.StorePath); ok {
			path = dir
		}
		w, err := storage.NewWatcher(path, constants.WatchDebounce)
		if err == nil {
			go func() {
				if err := w.Run(runCtx, reload); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("Store watcher stopped", "error", err)
				}
			}()
			return nil
		}
		log.Warn("Cannot watch store, polling instead", "path", path, "error", err)
	}

	if _, err := cr.ScheduleInterval(constants.ReloadInterval, reload); err != nil {
		return fmt.Errorf("failed to schedule reload: %w", err)
	}
	return nil
}
