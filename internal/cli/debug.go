package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/storage"
)

type DebugCmd struct {
	StorePath DebugStorePathCmd `cmd:"" help:"Show the store location."`
	DumpHabit DebugDumpHabitCmd `cmd:"" help:"Dump one habit as JSON."`
	DumpKey   DebugDumpKeyCmd   `cmd:"" help:"Dump a raw persisted key."`
}

type DebugStorePathCmd struct{}

func (cmd *DebugStorePathCmd) Run(ctx *Context) error {
	path := ctx.Store.GetConfigPath()
	if !ctx.IsFileStore() {
		path = maskPassword(path)
	}

	// Output in machine-readable format
	output := map[string]string{
		"config": ctx.ConfigPath,
		"store":  path,
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	fmt.Fprintln(ctx.Out, string(jsonBytes))
	return nil
}

type DebugDumpHabitCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or title."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *Context) error {
	hs, err := ctx.openForCommand()
	if err != nil {
		return err
	}
	defer hs.Close()

	h, err := hs.Lookup(ctx.Base, cmd.Habit)
	if err != nil {
		return err
	}

	jsonBytes, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal habit: %w", err)
	}

	fmt.Fprintln(ctx.Out, string(jsonBytes))
	return nil
}

type DebugDumpKeyCmd struct {
	Key string `arg:"" help:"Persisted key." enum:"@habits,@userStats,@schemaVersion,@carriedOver" default:"@habits"`
}

func (cmd *DebugDumpKeyCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	raw, err := ctx.Store.Get(cmd.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("key not found: %s", cmd.Key)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.Key, err)
	}

	if cmd.Key == constants.KeySchemaVersion {
		fmt.Fprintln(ctx.Out, string(raw))
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// Print corrupt values as is
		fmt.Fprintln(ctx.Out, string(raw))
		return nil
	}
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", cmd.Key, err)
	}
	fmt.Fprintln(ctx.Out, string(jsonBytes))
	return nil
}
