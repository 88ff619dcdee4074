package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName              = "habitflow"
	DefaultKeyringUser   = "database-connection"
	TelegramKeyringUser  = "telegram-token"
	DefaultConfigDir     = "~/.config/habitflow"
	DefaultConfigFile    = "config.yaml"
	DefaultStoreFileName = "habitflow.db"
	Version              = "v0.3.0"

	// Environment overrides for secrets that never live in the config file
	EnvDBConnection  = "HABITFLOW_DB_CONNECTION"
	EnvTelegramToken = "HABITFLOW_TELEGRAM_TOKEN"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Persisted state keys. These match the keys written by the mobile app so
	// exported snapshots stay readable by both.
	KeyHabits        = "@habits"
	KeyUserStats     = "@userStats"
	KeySchemaVersion = "@schemaVersion"
	// KeyCarried holds habits revived from postponement today; they stay due
	// for the rest of the day whatever their recurrence says.
	KeyCarried       = "@carriedOver"
	// KeyRevision changes on every snapshot write so a process sharing the
	// backend can tell its copy is stale.
	KeyRevision      = "@revision"

	// Persistence retry policy for snapshot writes
	PersistMaxRetries = 3
	PersistRetryDelay = 100 * time.Millisecond

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitflow-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "daylit-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.daylit"

	// Reminder constants
	MaxRemindersPerDay = 24
	ReminderTitle      = "Habit Reminder"
	ReminderBodyPrefix = "Time for: "
	ReloadInterval     = time.Minute
	WatchDebounce      = 250 * time.Millisecond

	// Habit draft defaults (mirrors the add screen)
	DefaultPointsValue = 10
	DefaultCategory    = "habit"

	// Default config values
	DefaultTimezone         = "Local"
	DefaultNotificationSink = "tray"
)

// Session States
const (
	StateDashboard SessionState = iota
	StateAddHabit
	StatePostpone
	StateEditTimes
	StateConfirmRemove
)
