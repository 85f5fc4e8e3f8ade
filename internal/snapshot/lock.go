package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// ErrLocked is returned by TryAcquireLock while another process holds the runs lock.
var ErrLocked = errors.New("runs directory is locked: a run is in progress")

// Lock is an exclusive flock on <runs_dir>/locks/run.lock.
type Lock struct {
	file *os.File
}

// AcquireLock creates and locks the runs directory lock, blocking until it is free.
func AcquireLock(runsDir string) (*Lock, error) {
	file, err := openLockFile(runsDir)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("lock run.lock: %w", err)
	}
	return &Lock{file: file}, nil
}

// TryAcquireLock locks the runs directory or fails fast with ErrLocked.
func TryAcquireLock(runsDir string) (*Lock, error) {
	file, err := openLockFile(runsDir)
	if err != nil {
		return nil, err
	}
	err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	switch {
	case err == nil:
		return &Lock{file: file}, nil
	case errors.Is(err, syscall.EWOULDBLOCK):
		_ = file.Close()
		return nil, ErrLocked
	default:
		_ = file.Close()
		return nil, fmt.Errorf("lock run.lock: %w", err)
	}
}

// Release releases the lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

func openLockFile(runsDir string) (*os.File, error) {
	locksDir := filepath.Join(runsDir, "locks")
	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		return nil, fmt.Errorf("create locks dir: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(locksDir, "run.lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return file, nil
}
