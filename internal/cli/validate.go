package cli

import (
	"fmt"

	"github.com/julianstephens/habitflow/internal/validation"
)

type ValidateCmd struct{}

func (cmd *ValidateCmd) Run(ctx *Context) error {
	habits, dropped, err := loadHabitsReadOnly(ctx)
	if err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}
	defer ctx.Store.Close()

	fmt.Fprintln(ctx.Out, "Validating habits...")
	for _, d := range dropped {
		fmt.Fprintf(ctx.Out, "  unreadable record: %v\n", d)
	}

	result := validation.New().ValidateHabits(habits)

	fmt.Fprintln(ctx.Out)
	fmt.Fprintln(ctx.Out, result.FormatReport())

	// Conflicts are reported, not returned
	return nil
}
