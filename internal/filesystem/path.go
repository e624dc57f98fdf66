package filesystem

import (
	"fmt"
	"path"
	"strings"

	"github.com/Ning0612/dataexporter/internal/domain"
)

// Separator is the path separator of virtual node paths
const Separator = "/"

// RelativePath returns absPath expressed relative to base.
//
// base itself maps to "". Paths are compared byte for byte: no cleaning,
// no case folding, no trailing separator trimming.
func RelativePath(base, absPath string) (string, error) {
	if absPath == base {
		return "", nil
	}

	prefix := base
	if !strings.HasSuffix(prefix, Separator) {
		prefix += Separator
	}

	if !strings.HasPrefix(absPath, prefix) {
		return "", fmt.Errorf("%w: %s is not inside %s", domain.ErrInvalidPath, absPath, base)
	}
	return absPath[len(prefix):], nil
}

// Join appends relPath to a folder path.
// relPath may carry a leading separator, as in "/files_trashbin/files".
func Join(base, relPath string) string {
	relPath = strings.TrimPrefix(relPath, Separator)
	if relPath == "" {
		return base
	}
	return path.Join(base, relPath)
}

// ParentPath returns the path of the folder containing p.
// The second result is false for the tree root.
func ParentPath(p string) (string, bool) {
	if p == "" || p == Separator {
		return "", false
	}
	return path.Dir(p), true
}

// ValidateRelPath rejects relative paths escaping the folder they are
// resolved against
func ValidateRelPath(relPath string) error {
	for _, part := range strings.Split(strings.Trim(relPath, Separator), Separator) {
		if part == ".." {
			return fmt.Errorf("%w: %s escapes its folder", domain.ErrNotFound, relPath)
		}
	}
	return nil
}
