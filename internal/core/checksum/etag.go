package checksum

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"
)

// StatETag derives an ETag from entry metadata only. It changes whenever
// size, modification time or mode change.
func StatETag(algo Algorithm, size int64, modTime time.Time, mode fs.FileMode) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(h, "%d:%d:%o", size, modTime.UnixNano(), uint32(mode))
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// ContentETag derives an ETag from content. Inputs over the calculator's
// MaxSize fail with ErrTooLarge; callers usually fall back to StatETag.
func ContentETag(ctx context.Context, calc Calculator, r io.Reader, algo Algorithm) (string, error) {
	if calc == nil {
		calc = NewDefaultCalculator()
	}
	return calc.Calculate(ctx, r, algo)
}
