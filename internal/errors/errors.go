package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/habitstore"
	"github.com/julianstephens/habitflow/internal/keyring"
	"github.com/julianstephens/habitflow/internal/lifecycle"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/storage"
)

// hints maps sentinel errors to the next step a user should take.
var hints = []struct {
	target error
	hint   string
}{
	{storage.ErrNotLoaded, "run 'habitflow init' to create the store"},
	{habitstore.ErrHabitNotFound, "run 'habitflow list --all' to see habit ids"},
	{habitstore.ErrAmbiguous, "pass the id shown by 'habitflow list --all'"},
	{lifecycle.ErrInvalidTransition, "check the habit's status with 'habitflow list --all'"},
	{keyring.ErrKeyringUnavailable, "export " + constants.EnvDBConnection + " or " + constants.EnvTelegramToken + " instead"},
}

// Hint returns a suggested next step for err, or "".
func Hint(err error) string {
	for _, h := range hints {
		if stderrors.Is(err, h.target) {
			return h.hint
		}
	}
	return ""
}

// Format formats an error message with a consistent "Error: " prefix and,
// when one is known, a hint on the following line
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if hint := Hint(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return msg
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Report logs err and writes its formatted form to w. It returns true when
// there was something to report.
func Report(w io.Writer, err error) bool {
	if err == nil {
		return false
	}
	logger.Error("Command failed", "error", err)
	fmt.Fprintln(w, Format(err))
	return true
}

// Fatal reports err on stderr and exits with code 1. A nil err is a no-op.
func Fatal(err error) {
	if Report(os.Stderr, err) {
		os.Exit(1)
	}
}

// Fatalf formats an error, reports it and exits with code 1
func Fatalf(format string, args ...interface{}) {
	Fatal(fmt.Errorf(format, args...))
}
