package checksum

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

func TestStatETag(t *testing.T) {
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	a, err := StatETag(MD5, 42, mtime, 0644)
	if err != nil {
		t.Fatalf("StatETag failed: %v", err)
	}
	if len(a) != 32 {
		t.Errorf("md5 etag length = %d, want 32", len(a))
	}

	same, _ := StatETag(MD5, 42, mtime, 0644)
	if a != same {
		t.Errorf("StatETag not deterministic: %s vs %s", a, same)
	}

	changes := []struct {
		name  string
		size  int64
		mtime time.Time
		mode  fs.FileMode
	}{
		{"size", 43, mtime, 0644},
		{"mtime", 42, mtime.Add(time.Nanosecond), 0644},
		{"mode", 42, mtime, 0600},
	}
	for _, c := range changes {
		got, _ := StatETag(MD5, c.size, c.mtime, c.mode)
		if got == a {
			t.Errorf("changing %s did not change the etag", c.name)
		}
	}

	if _, err := StatETag(Algorithm("crc32"), 1, mtime, 0); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestContentETag(t *testing.T) {
	ctx := context.Background()

	got, err := ContentETag(ctx, nil, strings.NewReader("hello world"), MD5)
	if err != nil {
		t.Fatalf("ContentETag failed: %v", err)
	}
	if got != "5eb63bbbe01eeed093cb22bb8f5acdc3" {
		t.Errorf("ContentETag = %s", got)
	}

	small := NewCalculator(Options{MaxSize: 4})
	if _, err := ContentETag(ctx, small, strings.NewReader("hello world"), MD5); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}
