//go:build windows

package lock

import (
	"errors"

	"golang.org/x/sys/windows"
)

// processExists reports whether pid is a running process
func processExists(pid int) bool {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		// access denied: alive but not ours
		return errors.Is(err, windows.ERROR_ACCESS_DENIED)
	}
	windows.CloseHandle(handle)
	return true
}
