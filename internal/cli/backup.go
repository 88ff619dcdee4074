package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habitflow/internal/backup"
	"github.com/julianstephens/habitflow/internal/constants"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
}

func (c *Context) requireBackups() (*backup.Manager, error) {
	mgr := c.BackupManager()
	if mgr == nil {
		return nil, errors.New("backups are only managed for .db and .json stores; use your database's own tooling")
	}
	return mgr, nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := ctx.requireBackups()
	if err != nil {
		return err
	}
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Fprintf(ctx.Out, "✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := ctx.requireBackups()
	if err != nil {
		return err
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Fprintln(ctx.Out, "No backups found.")
		fmt.Fprintf(ctx.Out, "Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	fmt.Fprintf(ctx.Out, "Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		timestamp := b.Timestamp.Format("2006-01-02 15:04:05")
		fmt.Fprintf(ctx.Out, "  %s  %s  (%.1f KB)\n", timestamp, filepath.Base(b.Path), sizeKB)
	}
	fmt.Fprintf(ctx.Out, "\nBackup directory: %s\n", mgr.GetBackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`

	in io.Reader
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := ctx.requireBackups()
	if err != nil {
		return err
	}

	backupPath := c.BackupFile
	if !filepath.IsAbs(backupPath) {
		// Bare names are looked up in the backup directory first
		possiblePath := filepath.Join(mgr.GetBackupDir(), c.BackupFile)
		if _, err := os.Stat(possiblePath); err == nil {
			backupPath = possiblePath
		}
	}
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupPath)
	}

	if !c.Yes {
		fmt.Fprintln(ctx.Out, "⚠️  WARNING: This will replace your current habits and stats with the backup.")
		fmt.Fprintln(ctx.Out, "A backup of your current store will be created before restoring.")
		fmt.Fprintf(ctx.Out, "\nRestore from: %s\n", filepath.Base(backupPath))
		fmt.Fprint(ctx.Out, "Continue? [y/N]: ")

		in := c.in
		if in == nil {
			in = os.Stdin
		}
		response, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(ctx.Out, "Restore cancelled.")
			return nil
		}
	}

	// The store must not hold the file open while it is replaced
	if err := ctx.Store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
	}

	safety, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Fprintln(ctx.Out, "✓ Store restored successfully!")
	if safety != "" {
		fmt.Fprintf(ctx.Out, "Previous store saved as: %s\n", filepath.Base(safety))
	}
	fmt.Fprintln(ctx.Out, "A running 'habitflow notify' picks the restored data up automatically.")
	return nil
}
