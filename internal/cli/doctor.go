package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/migration"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name    string
	run     func(*Context) error
	warning bool
	// gate marks the store check; needsStore checks are skipped when it
	// fails.
	gate       bool
	needsStore bool
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	checks := []check{
		{name: "Store reachable", run: checkStoreReachable, gate: true},
		{name: "Schema version", run: checkSchemaVersion, needsStore: true},
		{name: "Snapshot version", run: checkSnapshotVersion, needsStore: true},
		{name: "Data validation", run: checkValidation, needsStore: true},
		{name: "Backups present", run: checkBackupsPresent, warning: true},
		{name: "Notification sink", run: checkSink, warning: true},
		{name: "Clock/timezone", run: checkClockTimezone},
	}

	hasError := false
	storeOK := true
	for _, c := range checks {
		if c.needsStore && !storeOK {
			fmt.Fprintf(ctx.Out, "⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(ctx.Out, "✓ %s: OK\n", c.name)
		case c.warning:
			fmt.Fprintf(ctx.Out, "⚠ %s: WARNING\n", c.name)
			fmt.Fprintf(ctx.Out, "   %v\n", err)
		default:
			fmt.Fprintf(ctx.Out, "❌ %s: FAIL\n", c.name)
			fmt.Fprintf(ctx.Out, "   Error: %v\n", err)
			hasError = true
			if c.gate {
				storeOK = false
			}
		}
	}

	fmt.Fprintln(ctx.Out)
	if hasError {
		fmt.Fprintln(ctx.Out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Fprintln(ctx.Out, "All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	if _, err := ctx.Store.Get(constants.KeyHabits); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to read habits: %w", err)
	}
	return nil
}

// versioned is implemented by SQL-backed providers.
type versioned interface {
	SchemaVersion() (int, error)
}

func checkSchemaVersion(ctx *Context) error {
	v, ok := ctx.Store.(versioned)
	if !ok {
		// File and badger stores have no table schema
		return nil
	}
	current, err := v.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	if current < 1 {
		return fmt.Errorf("migrations incomplete: schema version %d", current)
	}
	return nil
}

func checkSnapshotVersion(ctx *Context) error {
	raw, err := ctx.Store.Get(constants.KeySchemaVersion)
	if errors.Is(err, storage.ErrNotFound) {
		if _, herr := ctx.Store.Get(constants.KeyHabits); herr == nil {
			fmt.Fprintln(ctx.Out, "   Note: legacy snapshot, it is upgraded on next open")
		}
		return nil
	}
	if err != nil {
		return err
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("unreadable snapshot version %q", raw)
	}
	if v > migration.CurrentRecordVersion {
		return fmt.Errorf("snapshot version (%d) is newer than supported version (%d)", v, migration.CurrentRecordVersion)
	}
	return nil
}

func checkValidation(ctx *Context) error {
	habits, dropped, err := loadHabitsReadOnly(ctx)
	if err != nil {
		return err
	}
	if len(dropped) > 0 {
		return fmt.Errorf("%d unreadable habit record(s), first: %v", len(dropped), dropped[0])
	}
	result := validation.New().ValidateHabits(habits)
	if result.HasConflicts() {
		return fmt.Errorf("%d conflict(s), run 'habitflow validate' for details", len(result.Conflicts))
	}
	return nil
}

// loadHabitsReadOnly decodes the stored collection without opening a
// habit store, so diagnostics never trigger a rollover write.
func loadHabitsReadOnly(ctx *Context) ([]models.Habit, []error, error) {
	if err := ctx.Store.Load(); err != nil {
		return nil, nil, err
	}
	raw, err := ctx.Store.Get(constants.KeyHabits)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	version := 0
	if rv, err := ctx.Store.Get(constants.KeySchemaVersion); err == nil {
		if v, err := strconv.Atoi(string(rv)); err == nil {
			version = v
		}
	}
	return migration.DecodeHabits(raw, version)
}

func checkBackupsPresent(ctx *Context) error {
	mgr := ctx.BackupManager()
	if mgr == nil {
		return fmt.Errorf("backups are not managed for this store type")
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'habitflow backup create'")
	}
	return nil
}

type availability interface {
	Available() error
}

func checkSink(ctx *Context) error {
	if !ctx.Config.Notifications.Enabled {
		return fmt.Errorf("notifications are disabled")
	}
	sink, err := ctx.NewSink(false)
	if err != nil {
		return err
	}
	if a, ok := sink.(availability); ok {
		if err := a.Available(); err != nil {
			return fmt.Errorf("%s sink unavailable: %w", sink.Name(), err)
		}
	}
	return nil
}

func checkClockTimezone(ctx *Context) error {
	now := ctx.Now()

	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	local := now.In(ctx.Location)
	if name, offset := local.Zone(); offset == 0 && ctx.Location == time.UTC {
		fmt.Fprintf(ctx.Out, "   Note: days roll over at midnight %s\n", name)
	}
	return nil
}
