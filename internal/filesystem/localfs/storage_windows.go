//go:build windows

package localfs

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Ning0612/dataexporter/internal/filesystem"
)

// storageID names the volume an entry lives on
func storageID(host string, _ fs.FileInfo) filesystem.StorageID {
	vol := filepath.VolumeName(host)
	if vol == "" {
		return "local"
	}
	return filesystem.StorageID("local::" + strings.ToUpper(vol))
}
