//go:build !windows

package lock

import (
	"errors"
	"os"
	"syscall"
)

// processExists reports whether pid is a running process
func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// FindProcess always succeeds on unix; signal 0 probes the pid.
	// EPERM still means the process is alive.
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
