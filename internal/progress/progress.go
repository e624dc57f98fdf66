package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Reporter receives progress while an export walks a folder tree
type Reporter interface {
	// Start begins a walk of base on behalf of userID
	Start(userID, base string)
	// Visit reports a node that was turned into a record
	Visit(path string, isDir bool)
	// Error reports the error that aborted the walk
	Error(err error)
	// Complete marks the walk as finished
	Complete()
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents a progress update
type Update struct {
	Type           UpdateType
	UserID         string
	Base           string
	CurrentPath    string
	Files          int
	Folders        int
	NodesPerSecond float64
	Elapsed        time.Duration
	Error          error
}

// Total returns the number of nodes visited so far
func (u Update) Total() int {
	return u.Files + u.Folders
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdateStart UpdateType = iota
	UpdateVisit
	UpdateComplete
	UpdateError
)

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback  Callback
	mu        sync.Mutex
	userID    string
	base      string
	files     int
	folders   int
	startTime time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{
		callback: callback,
	}
}

// Start resets counters for a new walk
func (r *CallbackReporter) Start(userID, base string) {
	r.mu.Lock()
	r.userID = userID
	r.base = base
	r.files = 0
	r.folders = 0
	r.startTime = time.Now()
	update := r.snapshotLocked(UpdateStart, "", nil)
	r.mu.Unlock()

	r.emit(update)
}

// Visit counts one more node
func (r *CallbackReporter) Visit(path string, isDir bool) {
	r.mu.Lock()
	if isDir {
		r.folders++
	} else {
		r.files++
	}
	update := r.snapshotLocked(UpdateVisit, path, nil)
	r.mu.Unlock()

	r.emit(update)
}

// Error reports a failed walk
func (r *CallbackReporter) Error(err error) {
	r.mu.Lock()
	update := r.snapshotLocked(UpdateError, "", err)
	r.mu.Unlock()

	r.emit(update)
}

// Complete reports a finished walk
func (r *CallbackReporter) Complete() {
	r.mu.Lock()
	update := r.snapshotLocked(UpdateComplete, "", nil)
	r.mu.Unlock()

	r.emit(update)
}

func (r *CallbackReporter) snapshotLocked(typ UpdateType, path string, err error) Update {
	elapsed := time.Since(r.startTime)
	var rate float64
	if elapsed > 0 {
		rate = float64(r.files+r.folders) / elapsed.Seconds()
	}
	return Update{
		Type:           typ,
		UserID:         r.userID,
		Base:           r.base,
		CurrentPath:    path,
		Files:          r.files,
		Folders:        r.folders,
		NodesPerSecond: rate,
		Elapsed:        elapsed,
		Error:          err,
	}
}

// emit calls the callback outside the lock to prevent deadlock
func (r *CallbackReporter) emit(update Update) {
	if r.callback != nil {
		r.callback(update)
	}
}

// WriterReporter prints a line per start, completion and error, and one
// every Every visited nodes
type WriterReporter struct {
	*CallbackReporter
	w     io.Writer
	every int
}

// NewWriterReporter creates a reporter printing to w
func NewWriterReporter(w io.Writer, every int) *WriterReporter {
	if every <= 0 {
		every = 1000
	}
	wr := &WriterReporter{w: w, every: every}
	wr.CallbackReporter = NewCallbackReporter(wr.print)
	return wr
}

func (wr *WriterReporter) print(u Update) {
	switch u.Type {
	case UpdateStart:
		fmt.Fprintf(wr.w, "exporting %s (%s)\n", u.UserID, u.Base)
	case UpdateVisit:
		if u.Total()%wr.every == 0 {
			fmt.Fprintf(wr.w, "  %s\n", FormatCounts(u))
		}
	case UpdateComplete:
		fmt.Fprintf(wr.w, "done: %s in %s\n", FormatCounts(u), u.Elapsed.Round(time.Millisecond))
	case UpdateError:
		fmt.Fprintf(wr.w, "failed after %s: %v\n", FormatCounts(u), u.Error)
	}
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) Start(userID, base string)     {}
func (NullReporter) Visit(path string, isDir bool) {}
func (NullReporter) Error(err error)               {}
func (NullReporter) Complete()                     {}

// FormatCounts formats the node counters of an update
func FormatCounts(u Update) string {
	return fmt.Sprintf("%d nodes (%d files, %d folders, %s)",
		u.Total(), u.Files, u.Folders, FormatRate(u.NodesPerSecond))
}

// FormatRate formats nodes per second into a human-readable string
func FormatRate(nodesPerSecond float64) string {
	switch {
	case nodesPerSecond >= 1000:
		return fmt.Sprintf("%.1fk nodes/s", nodesPerSecond/1000)
	default:
		return fmt.Sprintf("%.0f nodes/s", nodesPerSecond)
	}
}
