package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitflow/internal/backup"
	"github.com/julianstephens/habitflow/internal/config"
	"github.com/julianstephens/habitflow/internal/habitstore"
	"github.com/julianstephens/habitflow/internal/keyring"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/storage/badger"
	"github.com/julianstephens/habitflow/internal/storage/postgres"
	"github.com/julianstephens/habitflow/internal/storage/sqlite"
	"github.com/julianstephens/habitflow/internal/utils"
)

// KeyringStore is the store value that reads the postgres connection
// string from the OS keyring (or HABITFLOW_DB_CONNECTION).
const KeyringStore = "keyring"

type Context struct {
	Base       context.Context
	Config     *config.Config
	ConfigPath string
	Store      storage.Provider
	// StorePath is the expanded store value: a file path, a badger:<dir>
	// value or a connection string.
	StorePath string
	Location  *time.Location
	Out       io.Writer
	Now       func() time.Time
}

// NewContext loads the config file and builds the storage provider it
// names. A non-empty storeOverride replaces the configured store.
func NewContext(base context.Context, configPath, storeOverride string) (*Context, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storeOverride != "" {
		cfg.Store = storeOverride
	}
	storePath, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	store, err := NewProvider(storePath)
	if err != nil {
		return nil, err
	}
	return &Context{
		Base:       base,
		Config:     cfg,
		ConfigPath: configPath,
		Store:      store,
		StorePath:  storePath,
		Location:   loc,
		Out:        os.Stdout,
		Now:        time.Now,
	}, nil
}

// NewProvider picks a storage backend from a store value:
//
//	*.json              single JSON file
//	badger:<dir>        badger directory (single process)
//	postgres://...      PostgreSQL, no password in the string
//	keyring             PostgreSQL, connection string from the OS keyring
//	anything else       SQLite file
func NewProvider(store string) (storage.Provider, error) {
	switch {
	case store == KeyringStore:
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no connection string in keyring, run 'habitflow keyring set' first")
			}
			return nil, err
		}
		return postgres.New(connStr), nil
	case postgres.IsConnString(store) || strings.Contains(store, "host="):
		if _, err := postgres.ValidateConnString(store); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w; store the full string with 'habitflow keyring set' and use store: keyring, or use .pgpass", err)
			}
			return nil, err
		}
		return postgres.New(store), nil
	case strings.HasPrefix(store, "badger:"):
		dir := strings.TrimPrefix(store, "badger:")
		if dir == "" {
			return nil, errors.New("badger store needs a directory, e.g. badger:~/.config/habitflow/badger")
		}
		return badger.NewStore(dir), nil
	case strings.EqualFold(filepath.Ext(store), ".json"):
		return storage.NewJSONStore(store), nil
	default:
		return sqlite.NewStore(store), nil
	}
}

// IsFileStore reports whether the store lives in a local file or
// directory that can be watched and backed up.
func (c *Context) IsFileStore() bool {
	return c.StorePath != KeyringStore && !postgres.IsConnString(c.StorePath) && !strings.Contains(c.StorePath, "host=")
}

// OpenHabits loads the provider and opens a habit store on it.
func (c *Context) OpenHabits(notes habitstore.Notifications, opts ...habitstore.Option) (*habitstore.Store, error) {
	if err := c.Store.Load(); err != nil {
		return nil, err
	}
	base := []habitstore.Option{
		habitstore.WithLocation(c.Location),
		habitstore.WithClock(c.Now),
	}
	hs := habitstore.New(c.Store, notes, append(base, opts...)...)
	if err := hs.Open(c.Base); err != nil {
		return nil, err
	}
	if err := hs.Degraded(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: changes are not being saved: %v\n", err)
	}
	return hs, nil
}

// BackupManager returns a manager for file stores, or nil.
func (c *Context) BackupManager() *backup.Manager {
	if !backup.Supported(c.StorePath) {
		return nil
	}
	return backup.NewManager(c.StorePath)
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	mgr := c.BackupManager()
	if mgr == nil {
		return
	}
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseWeekdays parses a comma-separated list of weekdays
func ParseWeekdays(s string) ([]time.Weekday, error) {
	parts := strings.Split(s, ",")
	var weekdays []time.Weekday

	dayMap := map[string]time.Weekday{
		"sun":       time.Sunday,
		"sunday":    time.Sunday,
		"mon":       time.Monday,
		"monday":    time.Monday,
		"tue":       time.Tuesday,
		"tuesday":   time.Tuesday,
		"wed":       time.Wednesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"thursday":  time.Thursday,
		"fri":       time.Friday,
		"friday":    time.Friday,
		"sat":       time.Saturday,
		"saturday":  time.Saturday,
	}

	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if wd, ok := dayMap[part]; ok {
			weekdays = append(weekdays, wd)
		} else {
			// Try parsing as number (0=Sunday, 6=Saturday)
			num, err := strconv.Atoi(part)
			if err == nil && num >= 0 && num <= 6 {
				weekdays = append(weekdays, time.Weekday(num))
			} else {
				return nil, fmt.Errorf("invalid weekday: %s", part)
			}
		}
	}

	return weekdays, nil
}

// ParseRecurrence builds a rule from the add command's flags. An empty
// kind means daily.
func ParseRecurrence(kind, days, start string, dayOfMonth int) (models.RecurrenceRule, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "daily":
		return models.Daily{}, nil
	case "days", "specific_days", "specific-days":
		if days == "" {
			return nil, errors.New("--days is required for specific-days recurrence")
		}
		wds, err := ParseWeekdays(days)
		if err != nil {
			return nil, err
		}
		return models.SpecificDays{Days: wds}, nil
	case "every_other_day", "every-other-day", "alternate":
		return models.EveryOtherDay{StartDate: start}, nil
	case "weekly":
		rule := models.Weekly{StartDate: start}
		if days != "" {
			wds, err := ParseWeekdays(days)
			if err != nil {
				return nil, err
			}
			rule.Days = wds
		}
		return rule, nil
	case "monthly":
		return models.Monthly{DayOfMonth: dayOfMonth}, nil
	default:
		return nil, fmt.Errorf("invalid recurrence type: %s (expected daily|days|every-other-day|weekly|monthly)", kind)
	}
}

// ParseDateArg accepts YYYY-MM-DD, "tomorrow" or "+N" (days from today).
func ParseDateArg(s string, today time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case strings.HasPrefix(s, "+"):
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 1 {
			return time.Time{}, fmt.Errorf("invalid offset %q, expected +N with N >= 1", s)
		}
		return today.AddDate(0, 0, n), nil
	default:
		d, err := utils.ParseDate(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD, tomorrow or +N)", s)
		}
		return d, nil
	}
}

// statusMark is the one-character status column used by list output.
func statusMark(s models.Status) string {
	switch s {
	case models.StatusDone:
		return "✓"
	case models.StatusSkipped:
		return "-"
	case models.StatusPostponed:
		return "→"
	default:
		return " "
	}
}

// shortID trims uuids for display; the first eight characters are enough
// for Lookup.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
