package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// WithDirLock runs fn while holding an exclusive directory-based lock,
// failing with a *LockTimeoutError if the lock isn't acquired within wait.
// Used to serialize writers against the same run/bundle directory (spec.md
// §7: at most one writer holds a given output directory at a time).
func WithDirLock(lockDir string, wait time.Duration, fn func() error) error {
	release, err := acquireDirLock(lockDir, wait)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()
	return fn()
}

type lockOwnerV1 struct {
	V         int    `json:"v"`
	PID       int    `json:"pid"`
	StartedAt string `json:"startedAt"`
}

// LockTimeoutError is returned by WithDirLock when lockDir could not be
// acquired before the deadline. Use IsLockTimeout to test for it.
type LockTimeoutError struct {
	LockDir string
	Waited  time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("timeout acquiring lock %s after %s", e.LockDir, e.Waited)
}

// IsLockTimeout reports whether err is (or wraps) a *LockTimeoutError.
func IsLockTimeout(err error) bool {
	var lte *LockTimeoutError
	return errors.As(err, &lte)
}

const defaultStaleAfter = 2 * time.Minute

func acquireDirLock(lockDir string, wait time.Duration) (func() error, error) {
	start := time.Now()
	deadline := start.Add(wait)
	for {
		if err := os.Mkdir(lockDir, 0o755); err == nil {
			owner := lockOwnerV1{V: 1, PID: os.Getpid(), StartedAt: time.Now().UTC().Format(time.RFC3339Nano)}
			if b, err := json.Marshal(owner); err == nil {
				_ = os.WriteFile(filepath.Join(lockDir, "owner.json"), b, 0o644)
			}
			return func() error { return os.RemoveAll(lockDir) }, nil
		} else if !os.IsExist(err) {
			return nil, err
		}

		if shouldBreakStaleLock(lockDir, defaultStaleAfter, time.Now()) {
			_ = os.RemoveAll(lockDir)
			continue
		}

		if time.Now().After(deadline) {
			return nil, &LockTimeoutError{LockDir: lockDir, Waited: time.Since(start)}
		}
		if runtime.GOOS == "windows" {
			time.Sleep(35 * time.Millisecond)
		} else {
			time.Sleep(25 * time.Millisecond)
		}
	}
}

// shouldBreakStaleLock reports whether the lock at lockDir is old enough,
// and (when owner metadata names a PID) no longer held by a live process, to
// be safely broken. A lock whose owning PID is still alive is never broken
// regardless of age, guarding against breaking a lock held by a slow-but-live
// writer; a lock with no readable owner metadata falls back to age alone.
func shouldBreakStaleLock(lockDir string, staleAfter time.Duration, now time.Time) bool {
	info, err := os.Stat(lockDir)
	if err != nil {
		return false
	}
	if now.Sub(info.ModTime()) <= staleAfter {
		return false
	}

	b, err := os.ReadFile(filepath.Join(lockDir, "owner.json"))
	if err != nil {
		return true
	}
	var owner lockOwnerV1
	if err := json.Unmarshal(b, &owner); err != nil {
		return true
	}
	if owner.PID <= 0 {
		return true
	}
	return !processAlive(owner.PID)
}
