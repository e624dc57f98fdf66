// Package lock provides per-user export locks backed by lock files, so two
// exporter processes never write the same user's manifest at once.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ning0612/dataexporter/internal/domain"
)

const (
	// LockFileSuffix is appended to the user id to name the lock file
	LockFileSuffix = ".export.lock"
	// DefaultStaleTimeout applies to locks held on other hosts
	DefaultStaleTimeout = 30 * time.Minute
)

// LockInfo describes the lock holder
type LockInfo struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartTime time.Time `json:"start_time"`
	UserID    string    `json:"user_id"`
	RunID     string    `json:"run_id,omitempty"`
}

// FileLock guards the exports of one user
type FileLock struct {
	lockPath     string
	userID       string
	staleTimeout time.Duration
	info         *LockInfo
}

// LockPath returns the lock file of userID inside lockDir
func LockPath(lockDir, userID string) string {
	return filepath.Join(lockDir, userID+LockFileSuffix)
}

// NewFileLock creates the lock of userID, creating lockDir if needed
func NewFileLock(lockDir, userID string) (*FileLock, error) {
	if lockDir == "" {
		return nil, fmt.Errorf("%w: lock directory cannot be empty", domain.ErrInvalidArgument)
	}
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return nil, fmt.Errorf("%w: user id %q cannot name a lock file", domain.ErrInvalidArgument, userID)
	}

	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	return &FileLock{
		lockPath:     LockPath(lockDir, userID),
		userID:       userID,
		staleTimeout: DefaultStaleTimeout,
	}, nil
}

// Path returns the lock file path
func (l *FileLock) Path() string {
	return l.lockPath
}

// SetStaleTimeout sets the age after which a foreign-host lock is stale
func (l *FileLock) SetStaleTimeout(d time.Duration) {
	l.staleTimeout = d
}

// Acquire takes the lock for the export run runID. Re-acquiring a lock this
// instance already holds only updates the run id.
func (l *FileLock) Acquire(runID string) error {
	if l.info != nil {
		existing, err := l.readLockInfo()
		if err == nil && l.isHeldByThisInstance(existing) {
			existing.RunID = runID
			if err := l.writeLockInfo(existing); err != nil {
				return err
			}
			// keep l.info identical to the file or Release reports a steal
			l.info.RunID = runID
			return nil
		}
	}

	existing, err := l.readLockInfo()
	if err == nil {
		if !l.isStale(existing) {
			return &LockError{
				Holder: existing,
				Reason: "lock is held by another process",
			}
		}
		if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale lock: %w", err)
		}
	}

	hostname, _ := os.Hostname()
	info := &LockInfo{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartTime: time.Now(),
		UserID:    l.userID,
		RunID:     runID,
	}

	// O_EXCL makes creation the actual acquisition
	file, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			// the winner may not have written its info yet
			existing, _ := l.readLockInfo()
			return &LockError{
				Holder: existing,
				Reason: "lock acquired by another process during acquisition",
			}
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(info); err != nil {
		os.Remove(l.lockPath)
		return fmt.Errorf("failed to write lock info: %w", err)
	}

	l.info = info
	return nil
}

// Release removes the lock file if this instance still owns it
func (l *FileLock) Release() error {
	if l.info == nil {
		return nil
	}

	existing, err := l.readLockInfo()
	if err != nil {
		l.info = nil
		return nil
	}

	if !l.isHeldByThisInstance(existing) {
		l.info = nil
		return fmt.Errorf("lock of %s was stolen by another process", l.userID)
	}

	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	l.info = nil
	return nil
}

// IsLocked reports whether a live lock exists
func (l *FileLock) IsLocked() bool {
	info, err := l.readLockInfo()
	if err != nil {
		return false
	}
	return !l.isStale(info)
}

// GetHolder returns the live lock holder
func (l *FileLock) GetHolder() (*LockInfo, error) {
	info, err := l.readLockInfo()
	if err != nil {
		return nil, err
	}
	if l.isStale(info) {
		return nil, fmt.Errorf("lock is stale")
	}
	return info, nil
}

// ForceRelease removes the lock file whoever holds it.
// Only for holders known to have crashed.
func (l *FileLock) ForceRelease() error {
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to force remove lock: %w", err)
	}
	l.info = nil
	return nil
}

func (l *FileLock) readLockInfo() (*LockInfo, error) {
	data, err := os.ReadFile(l.lockPath)
	if err != nil {
		return nil, err
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("invalid lock file format: %w", err)
	}

	return &info, nil
}

func (l *FileLock) writeLockInfo(info *LockInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.lockPath, data, 0644)
}

// isStale: on this host a lock is stale only when its process is gone; the
// timeout is used for other hosts, whose processes cannot be checked.
func (l *FileLock) isStale(info *LockInfo) bool {
	hostname, _ := os.Hostname()

	if info.Hostname == hostname {
		return !processExists(info.PID)
	}

	return time.Since(info.StartTime) > l.staleTimeout
}

func (l *FileLock) isHeldByCurrentProcess(info *LockInfo) bool {
	hostname, _ := os.Hostname()
	return info.PID == os.Getpid() && info.Hostname == hostname
}

func (l *FileLock) isHeldByThisInstance(info *LockInfo) bool {
	if l.info == nil {
		return false
	}
	return l.isHeldByCurrentProcess(info) &&
		l.info.StartTime.Equal(info.StartTime) &&
		l.info.RunID == info.RunID
}

// LockError is returned when the lock is held elsewhere.
// errors.Is(err, domain.ErrExportInProgress) holds for it.
type LockError struct {
	Holder *LockInfo
	Reason string
}

func (e *LockError) Error() string {
	if e.Holder != nil {
		return fmt.Sprintf("cannot acquire export lock of %s: %s (held by PID %d on %s since %s, run: %s)",
			e.Holder.UserID,
			e.Reason,
			e.Holder.PID,
			e.Holder.Hostname,
			e.Holder.StartTime.Format(time.RFC3339),
			e.Holder.RunID,
		)
	}
	return fmt.Sprintf("cannot acquire export lock: %s", e.Reason)
}

func (e *LockError) Unwrap() error {
	return domain.ErrExportInProgress
}

// IsLockError checks if an error is a LockError
func IsLockError(err error) bool {
	var le *LockError
	return errors.As(err, &le)
}
