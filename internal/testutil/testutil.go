// Package testutil holds helpers shared by package tests.
package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// TempDir creates a temporary directory for testing
// It returns the directory path and a cleanup function
func TempDir(t *testing.T) (string, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "dataexporter-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

// CreateTestFile writes content to dir/name, creating parent folders
func CreateTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	return path
}

// CreateTestFileWithSize creates a test file with random content of the given size
func CreateTestFileWithSize(t *testing.T, dir, name string, size int64) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	defer file.Close()

	const chunkSize = 1024 * 1024
	buf := make([]byte, chunkSize)
	remaining := size

	for remaining > 0 {
		writeSize := chunkSize
		if remaining < int64(chunkSize) {
			writeSize = int(remaining)
		}

		rand.Read(buf[:writeSize])
		if _, err := file.Write(buf[:writeSize]); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}

		remaining -= int64(writeSize)
	}

	return path
}

// Tree maps slash separated paths to file contents. A path ending in "/"
// is created as an empty folder.
type Tree map[string]string

// WriteTree materializes tree below root
func WriteTree(t *testing.T, root string, tree Tree) {
	t.Helper()

	paths := make([]string, 0, len(tree))
	for p := range tree {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if p[len(p)-1] == '/' {
			if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(p)), 0755); err != nil {
				t.Fatalf("failed to create folder %s: %v", p, err)
			}
			continue
		}
		CreateTestFile(t, root, p, []byte(tree[p]))
	}
}

// DataDir creates an ownCloud style data directory holding one home per
// user: <dir>/<user>/files. It is removed when the test ends.
func DataDir(t *testing.T, users ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, u := range users {
		if err := os.MkdirAll(filepath.Join(dir, u, "files"), 0755); err != nil {
			t.Fatalf("failed to create home of %s: %v", u, err)
		}
	}
	return dir
}

// RandomString generates a random string of the given length
func RandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
