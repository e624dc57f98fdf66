package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

// TestCallbackReporter_Start tests starting a walk
func TestCallbackReporter_Start(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.Start("u1", "/u1/files")

	if update.Type != UpdateStart {
		t.Errorf("expected UpdateStart, got %v", update.Type)
	}
	if update.UserID != "u1" || update.Base != "/u1/files" {
		t.Errorf("unexpected start update: %+v", update)
	}
	if update.Total() != 0 {
		t.Errorf("expected no nodes, got %d", update.Total())
	}
}

// TestCallbackReporter_Visit tests node counting
func TestCallbackReporter_Visit(t *testing.T) {
	var updates []Update
	reporter := NewCallbackReporter(func(u Update) {
		updates = append(updates, u)
	})

	reporter.Start("u1", "/u1/files")
	reporter.Visit("", true)
	reporter.Visit("a.txt", false)
	reporter.Visit("docs", true)
	reporter.Visit("docs/b.txt", false)
	reporter.Visit("docs/c.txt", false)

	last := updates[len(updates)-1]
	if last.Type != UpdateVisit {
		t.Errorf("expected UpdateVisit, got %v", last.Type)
	}
	if last.CurrentPath != "docs/c.txt" {
		t.Errorf("expected current path docs/c.txt, got %s", last.CurrentPath)
	}
	if last.Files != 3 || last.Folders != 2 {
		t.Errorf("expected 3 files and 2 folders, got %d and %d", last.Files, last.Folders)
	}
}

// TestCallbackReporter_StartResets tests that counters do not leak between walks
func TestCallbackReporter_StartResets(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.Start("u1", "/u1/files")
	reporter.Visit("a.txt", false)
	reporter.Start("u1", "/u1/files_trashbin/files")
	reporter.Complete()

	if update.Total() != 0 {
		t.Errorf("expected counters reset, got %d", update.Total())
	}
	if update.Base != "/u1/files_trashbin/files" {
		t.Errorf("unexpected base %s", update.Base)
	}
}

// TestCallbackReporter_Error tests error reporting
func TestCallbackReporter_Error(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	testErr := errors.New("storage unavailable")
	reporter.Start("u1", "/u1/files")
	reporter.Visit("", true)
	reporter.Error(testErr)

	if update.Type != UpdateError {
		t.Errorf("expected UpdateError, got %v", update.Type)
	}
	if update.Error != testErr {
		t.Errorf("expected error %v, got %v", testErr, update.Error)
	}
	if update.Folders != 1 {
		t.Errorf("expected progress kept on error, got %d folders", update.Folders)
	}
}

// TestCallbackReporter_NilCallback tests that a nil callback does not panic
func TestCallbackReporter_NilCallback(t *testing.T) {
	reporter := NewCallbackReporter(nil)

	reporter.Start("u1", "/u1/files")
	reporter.Visit("a.txt", false)
	reporter.Error(errors.New("x"))
	reporter.Complete()
}

// TestCallbackReporter_Concurrent tests that counters are safe to update concurrently
func TestCallbackReporter_Concurrent(t *testing.T) {
	var mu sync.Mutex
	var last Update
	reporter := NewCallbackReporter(func(u Update) {
		mu.Lock()
		last = u
		mu.Unlock()
	})
	reporter.Start("u1", "/u1/files")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reporter.Visit("f", i%2 == 0)
		}(i)
	}
	wg.Wait()
	reporter.Complete()

	mu.Lock()
	defer mu.Unlock()
	if last.Total() != 50 {
		t.Errorf("expected 50 nodes, got %d", last.Total())
	}
}

// TestWriterReporter tests the line based output
func TestWriterReporter(t *testing.T) {
	buf := &bytes.Buffer{}
	reporter := NewWriterReporter(buf, 2)

	reporter.Start("u1", "/u1/files")
	reporter.Visit("", true)
	reporter.Visit("a.txt", false)
	reporter.Visit("b.txt", false)
	reporter.Complete()

	output := buf.String()
	if !strings.Contains(output, "exporting u1 (/u1/files)") {
		t.Errorf("missing start line: %s", output)
	}
	if strings.Count(output, "\n  ") != 1 {
		t.Errorf("expected exactly one intermediate line: %s", output)
	}
	if !strings.Contains(output, "done: 3 nodes (2 files, 1 folders") {
		t.Errorf("missing completion line: %s", output)
	}
}

// TestNullReporter tests that NullReporter satisfies Reporter
func TestNullReporter(t *testing.T) {
	var r Reporter = NullReporter{}
	r.Start("u1", "/u1/files")
	r.Visit("a.txt", false)
	r.Error(nil)
	r.Complete()
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		rate     float64
		expected string
	}{
		{0, "0 nodes/s"},
		{12.4, "12 nodes/s"},
		{999, "999 nodes/s"},
		{1500, "1.5k nodes/s"},
	}

	for _, tt := range tests {
		if got := FormatRate(tt.rate); got != tt.expected {
			t.Errorf("FormatRate(%v) = %s, want %s", tt.rate, got, tt.expected)
		}
	}
}
