// Package extractor turns the nodes of a user's storage into export records.
package extractor

import (
	"context"
	"fmt"

	"github.com/Ning0612/dataexporter/internal/core/nodeiter"
	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
	"github.com/Ning0612/dataexporter/internal/logger"
	"github.com/Ning0612/dataexporter/internal/progress"
)

// Extractor collects file metadata records for users
type Extractor struct {
	factory  *nodeiter.Factory
	mode     nodeiter.Mode
	reporter progress.Reporter
	logger   logger.Logger
}

// New creates an extractor walking folders built by factory
func New(factory *nodeiter.Factory) *Extractor {
	return &Extractor{
		factory: factory,
		mode:    nodeiter.SelfFirst,
	}
}

// SetProgressReporter sets the reporter notified for every record
func (e *Extractor) SetProgressReporter(reporter progress.Reporter) {
	e.reporter = reporter
}

// SetLogger replaces the extractor's logger
func (e *Extractor) SetLogger(l logger.Logger) {
	e.logger = l
}

// SetMode changes the traversal order of subsequent extractions
func (e *Extractor) SetMode(mode nodeiter.Mode) {
	e.mode = mode
}

// Extract returns a record for every node of the user's home folder that
// lives on the home storage. Paths are relative to the home folder.
//
// Resolution errors are returned before any record is produced. If the walk
// fails midway, the records gathered so far are returned with the error.
func (e *Extractor) Extract(ctx context.Context, userID string) ([]domain.File, error) {
	walker, base, err := e.factory.UserFolderIterator(ctx, userID, e.mode)
	if err != nil {
		return nil, err
	}
	return e.collect(ctx, userID, walker, base)
}

// ExtractTrashBin returns a record for every node of the user's trash bin.
// Paths are relative to the trash bin folder.
func (e *Extractor) ExtractTrashBin(ctx context.Context, userID string) ([]domain.File, error) {
	walker, base, err := e.factory.TrashBinIterator(ctx, userID, e.mode)
	if err != nil {
		return nil, err
	}
	return e.collect(ctx, userID, walker, base)
}

func (e *Extractor) collect(ctx context.Context, userID string, walker *nodeiter.Walker, base filesystem.Folder) ([]domain.File, error) {
	log := e.log().With("user", userID, "base", base.Path())
	reporter := e.getReporter()
	reporter.Start(userID, base.Path())

	var files []domain.File
	for walker.Next(ctx) {
		record, err := NewRecord(base, walker.Node())
		if err != nil {
			reporter.Error(err)
			return files, err
		}
		files = append(files, record)
		reporter.Visit(record.Path, record.IsDir())
	}

	if err := walker.Err(); err != nil {
		log.Error("walk aborted", "records", len(files), "error", err)
		reporter.Error(err)
		return files, fmt.Errorf("walking %s: %w", base.Path(), err)
	}

	log.Info("extraction complete", "records", len(files))
	reporter.Complete()
	return files, nil
}

// NewRecord builds the export record of node, keyed by its path relative
// to base
func NewRecord(base filesystem.Folder, node filesystem.Node) (domain.File, error) {
	rel, err := base.RelativePath(node.Path())
	if err != nil {
		return domain.File{}, err
	}

	typ := domain.NodeTypeFolder
	if node.Type() == domain.NodeTypeFile {
		typ = domain.NodeTypeFile
	}

	return domain.File{
		Path:        rel,
		ETag:        node.ETag(),
		Permissions: node.Permissions(),
		Type:        typ.String(),
	}, nil
}

func (e *Extractor) getReporter() progress.Reporter {
	if e.reporter != nil {
		return e.reporter
	}
	return progress.NullReporter{}
}

func (e *Extractor) log() logger.Logger {
	if e.logger != nil {
		return e.logger
	}
	return logger.With("component", "extractor")
}
