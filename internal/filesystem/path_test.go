package filesystem

import (
	"errors"
	"testing"

	"github.com/Ning0612/dataexporter/internal/domain"
)

func TestRelativePath(t *testing.T) {
	tests := []struct {
		name string
		base string
		abs  string
		want string
	}{
		{"base itself", "/u1/files", "/u1/files", ""},
		{"direct child", "/u1/files", "/u1/files/a.txt", "a.txt"},
		{"nested", "/u1/files", "/u1/files/x/y", "x/y"},
		{"filesystem root", "/", "/u1/files", "u1/files"},
		{"trailing separator kept", "/u1/files", "/u1/files/dir/", "dir/"},
		{"case preserved", "/u1/files", "/u1/files/ABC.txt", "ABC.txt"},
		{"trash", "/u1/files_trashbin/files", "/u1/files_trashbin/files/a.txt.d1", "a.txt.d1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelativePath(tt.base, tt.abs)
			if err != nil {
				t.Fatalf("RelativePath(%q, %q) error = %v", tt.base, tt.abs, err)
			}
			if got != tt.want {
				t.Errorf("RelativePath(%q, %q) = %q, want %q", tt.base, tt.abs, got, tt.want)
			}
		})
	}
}

func TestRelativePath_Outside(t *testing.T) {
	tests := []struct {
		base string
		abs  string
	}{
		{"/u1/files", "/u2/files/a.txt"},
		{"/u1/files", "/u1/files_trashbin/files"}, // shared prefix without separator
		{"/u1/files", "/u1"},
		{"/u1/files", ""},
	}

	for _, tt := range tests {
		_, err := RelativePath(tt.base, tt.abs)
		if !errors.Is(err, domain.ErrInvalidPath) {
			t.Errorf("RelativePath(%q, %q) error = %v, want ErrInvalidPath", tt.base, tt.abs, err)
		}
	}
}

func TestRelativePath_RoundTrip(t *testing.T) {
	bases := []string{"/u1/files", "/a", "/deep/er/base", "/with space/files"}
	suffixes := []string{"x/y", "x", "a/b/c/d.txt", "ünïcode/ファイル"}

	for _, base := range bases {
		for _, suffix := range suffixes {
			got, err := RelativePath(base, base+"/"+suffix)
			if err != nil {
				t.Fatalf("RelativePath error = %v", err)
			}
			if got != suffix {
				t.Errorf("RelativePath(%q, %q) = %q, want %q", base, base+"/"+suffix, got, suffix)
			}
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"/u1", "/files_trashbin/files", "/u1/files_trashbin/files"},
		{"/u1", "files_trashbin/files", "/u1/files_trashbin/files"},
		{"/u1/files", "", "/u1/files"},
		{"/", "u1", "/u1"},
	}

	for _, tt := range tests {
		if got := Join(tt.base, tt.rel); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
		}
	}
}

func TestParentPath(t *testing.T) {
	if p, ok := ParentPath("/u1/files"); !ok || p != "/u1" {
		t.Errorf("ParentPath(/u1/files) = %q, %v", p, ok)
	}
	if p, ok := ParentPath("/u1"); !ok || p != "/" {
		t.Errorf("ParentPath(/u1) = %q, %v", p, ok)
	}
	if _, ok := ParentPath("/"); ok {
		t.Error("ParentPath(/) should report no parent")
	}
}

func TestValidateRelPath(t *testing.T) {
	if err := ValidateRelPath("files_trashbin/files"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateRelPath("../u2/files"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
