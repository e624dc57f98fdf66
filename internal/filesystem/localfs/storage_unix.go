//go:build !windows

package localfs

import (
	"fmt"
	"io/fs"
	"syscall"

	"github.com/Ning0612/dataexporter/internal/filesystem"
)

// storageID names the device an entry lives on, so a mount point below a
// user's home reports a different storage than its parent
func storageID(_ string, info fs.FileInfo) filesystem.StorageID {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return filesystem.StorageID(fmt.Sprintf("local::%d", st.Dev))
	}
	return "local"
}
