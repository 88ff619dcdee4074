package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/config"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"${config_path}"`
	Store   string `help:"Override the store from the config (file path, badger:<dir>, postgres URL or 'keyring')." env:"HABITFLOW_STORE"`
	Debug   bool   `help:"Enable debug logging."`

	Init       cli.InitCmd       `cmd:"" help:"Initialize habitflow storage."`
	Tui        cli.TuiCmd        `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Add        cli.AddCmd        `cmd:"" help:"Add a habit."`
	List       cli.ListCmd       `cmd:"" help:"List today's habits by category."`
	Done       cli.DoneCmd       `cmd:"" help:"Mark a habit done, or undo it."`
	Postpone   cli.PostponeCmd   `cmd:"" help:"Postpone a habit to a later date."`
	Unpostpone cli.UnpostponeCmd `cmd:"" help:"Bring a postponed habit back today."`
	Skip       cli.SkipCmd       `cmd:"" help:"Skip a habit for today."`
	Times      cli.TimesCmd      `cmd:"" help:"Edit a habit's due and reminder times."`
	Remove     cli.RemoveCmd     `cmd:"" help:"Remove a habit."`
	Stats      cli.StatsCmd      `cmd:"" help:"Show streak and points."`
	Reminders  cli.RemindersCmd  `cmd:"" help:"Preview reminder times."`
	Notify     cli.NotifyCmd     `cmd:"" help:"Run the reminder daemon."`
	Doctor     cli.DoctorCmd     `cmd:"" help:"Run health checks."`
	Validate   cli.ValidateCmd   `cmd:"" help:"Check stored habits for problems."`
	Backup     cli.BackupCmd     `cmd:"" help:"Manage store backups."`
	Keyring    cli.KeyringCmd    `cmd:"" help:"Manage secrets in the OS keyring."`
	Inspect    cli.DebugCmd      `cmd:"" name:"debug" help:"Inspect raw store contents."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily habit tracker with streaks and reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": config.DefaultPath(),
		},
	)

	base, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx, err := cli.NewContext(base, CLI.Config, CLI.Store)
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || appCtx.Config.Debug,
		ConfigDir: filepath.Dir(CLI.Config),
		Stderr:    strings.HasPrefix(kctx.Command(), "notify"),
	}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}
	logger.Debug("Starting", "command", kctx.Command(), "store", appCtx.StorePath)

	err = kctx.Run(appCtx)
	stop()
	errors.Fatal(err)
}
