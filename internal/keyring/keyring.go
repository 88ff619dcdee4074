package keyring

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Secret names one credential habitflow keeps outside the config file.
type Secret struct {
	User string // keyring account under the habitflow service
	Env  string // environment override
}

var (
	DBConnection  = Secret{User: constants.DefaultKeyringUser, Env: constants.EnvDBConnection}
	TelegramToken = Secret{User: constants.TelegramKeyringUser, Env: constants.EnvTelegramToken}
)

// Get returns the secret from the environment override if set, else from
// the OS keyring. Returns ErrNotFound if neither has it.
func Get(s Secret) (string, error) {
	if v := os.Getenv(s.Env); v != "" {
		return v, nil
	}
	v, err := keyring.Get(constants.AppName, s.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

// Set stores the secret in the OS keyring.
func Set(s Secret, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", s.User)
	}
	if err := keyring.Set(constants.AppName, s.User, value); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// Delete removes the secret from the OS keyring.
func Delete(s Secret) error {
	err := keyring.Delete(constants.AppName, s.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// GetConnectionString retrieves the postgres connection string.
func GetConnectionString() (string, error) {
	return Get(DBConnection)
}

// SetConnectionString stores the postgres connection string.
func SetConnectionString(connStr string) error {
	return Set(DBConnection, connStr)
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
