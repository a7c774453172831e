package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/varden/envsensord/internal/errors"
)

const (
	pidFile = "envsensord.pid"
)

// Write writes the current process ID to a PID file. It fails if another
// live process already holds the file.
func Write() error {
	errFactory := errors.New()
	pid := os.Getpid()
	path := filepath.Join(os.TempDir(), pidFile)

	if _, err := os.Stat(path); err == nil {
		// PID file exists, check if the process is running
		raw, err := os.ReadFile(path)
		if err != nil {
			return errFactory.Wrap(errors.ErrInternal, err)
		}

		oldPID, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err == nil {
			if process, err := os.FindProcess(oldPID); err == nil {
				if process.Signal(syscall.Signal(0)) == nil {
					return errFactory.WithData(errors.ErrAlreadyRunning, oldPID)
				}
			}
		}
		// Stale file from a dead process; overwrite it.
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove() error {
	path := filepath.Join(os.TempDir(), pidFile)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}
