package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/habitflow/internal/habitstore"
	"github.com/julianstephens/habitflow/internal/scheduler"
)

type InitCmd struct {
	Force bool `help:"Delete an existing file store before initializing."`
	Empty bool `help:"Start without the starter habits."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if _, err := os.Stat(ctx.ConfigPath); os.IsNotExist(err) {
		if err := ctx.Config.Save(ctx.ConfigPath); err != nil {
			return err
		}
		fmt.Fprintf(ctx.Out, "Wrote default config to: %s\n", ctx.ConfigPath)
	}

	if c.Force && ctx.IsFileStore() {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing store: %w", err)
		}
		path := ctx.StorePath
		if dir, ok := badgerDir(path); ok {
			path = dir
		}
		if _, err := os.Stat(path); err == nil {
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("failed to delete existing store: %w", err)
			}
			fmt.Fprintf(ctx.Out, "Deleted existing store at: %s\n", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing store: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}

	hs, err := ctx.OpenHabits(scheduler.NewRecorder(), habitstore.WithSeed(!c.Empty))
	if err != nil {
		return err
	}
	defer hs.Close()

	fmt.Fprintf(ctx.Out, "Initialized habitflow storage at: %s\n", ctx.Store.GetConfigPath())
	fmt.Fprintf(ctx.Out, "%d habits ready\n", len(hs.Habits(ctx.Base)))
	return nil
}

func badgerDir(store string) (string, bool) {
	return strings.CutPrefix(store, "badger:")
}
