// Package service wires configuration, backends and the extractor into
// export runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Ning0612/dataexporter/internal/config"
	"github.com/Ning0612/dataexporter/internal/core/extractor"
	"github.com/Ning0612/dataexporter/internal/core/nodeiter"
	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/export"
	"github.com/Ning0612/dataexporter/internal/filesystem"
	"github.com/Ning0612/dataexporter/internal/lock"
	"github.com/Ning0612/dataexporter/internal/logger"
	"github.com/Ning0612/dataexporter/internal/progress"
	"github.com/Ning0612/dataexporter/internal/state"
)

// ExportRequest describes one export run
type ExportRequest struct {
	UserID string
	Scope  export.Scope
	Mode   nodeiter.Mode
}

// ExportService runs exports and records their history
type ExportService struct {
	config   *config.Config
	root     filesystem.RootFolder
	backend  io.Closer
	stateMgr *state.Manager
	reporter progress.Reporter
	now      func() time.Time
}

// NewExportService opens the configured backend and history database
func NewExportService(cfg *config.Config) (*ExportService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	root, closer, err := OpenBackend(cfg.Filesystem)
	if err != nil {
		return nil, err
	}

	svc, err := NewExportServiceWithRoot(cfg, root)
	if err != nil {
		closer.Close()
		return nil, err
	}
	svc.backend = closer
	return svc, nil
}

// NewExportServiceWithRoot exports from an already opened backend
func NewExportServiceWithRoot(cfg *config.Config, root filesystem.RootFolder) (*ExportService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if root == nil {
		return nil, fmt.Errorf("%w: root folder cannot be nil", domain.ErrInvalidArgument)
	}

	stateMgr, err := state.NewManager(cfg.State.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open export history: %w", err)
	}

	return &ExportService{
		config:   cfg,
		root:     root,
		stateMgr: stateMgr,
		now:      time.Now,
	}, nil
}

// SetProgressReporter sets the reporter used by subsequent exports
func (s *ExportService) SetProgressReporter(reporter progress.Reporter) {
	s.reporter = reporter
}

func (s *ExportService) getReporter() progress.Reporter {
	if s.reporter != nil {
		return s.reporter
	}
	return progress.NullReporter{}
}

// Export walks the requested trees of a user into a manifest.
//
// The user's export lock is held for the whole run and every run, failed
// ones included, is written to the history. When a walk aborts midway the
// partial manifest is returned together with the error.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*export.Manifest, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id cannot be empty", domain.ErrInvalidArgument)
	}
	if req.Scope == "" {
		req.Scope = export.ScopeFiles
	}

	log := logger.With("component", "export", "user", req.UserID, "scope", req.Scope)

	manifest := export.NewManifest(req.UserID, s.config.OriginServer, s.now())
	log = log.With("run", manifest.ID)

	fileLock, err := lock.NewFileLock(s.config.Lock.Dir, req.UserID)
	if err != nil {
		return nil, err
	}
	log.Debug("acquiring export lock", "path", fileLock.Path())
	if err := fileLock.Acquire(manifest.ID); err != nil {
		log.Error("failed to acquire export lock", "error", err)
		return nil, fmt.Errorf("failed to acquire export lock: %w", err)
	}
	defer func() {
		if err := fileLock.Release(); err != nil {
			log.Error("failed to release export lock", "error", err)
		}
	}()

	start := s.now()
	runErr := s.extract(ctx, req, manifest, log)
	s.saveHistory(manifest, req, start, runErr, log)

	if runErr != nil {
		return manifest, runErr
	}

	log.Info("export complete", "files", len(manifest.Files), "trashbin", len(manifest.TrashBin))
	return manifest, nil
}

func (s *ExportService) extract(ctx context.Context, req ExportRequest, manifest *export.Manifest, log logger.Logger) error {
	ext := extractor.New(nodeiter.NewFactory(s.root))
	ext.SetMode(req.Mode)
	ext.SetProgressReporter(s.getReporter())
	ext.SetLogger(log)

	if req.Scope.IncludesFiles() {
		files, err := ext.Extract(ctx, req.UserID)
		if files != nil {
			manifest.Files = files
		}
		if err != nil {
			return err
		}
	}

	if req.Scope.IncludesTrashBin() {
		trash, err := ext.ExtractTrashBin(ctx, req.UserID)
		manifest.TrashBin = trash
		if err != nil {
			// an empty trash bin is often never created
			if req.Scope == export.ScopeAll && errors.Is(err, domain.ErrNotFound) && len(trash) == 0 {
				log.Warn("user has no trash bin", "error", err)
				return nil
			}
			return err
		}
	}

	return nil
}

func (s *ExportService) saveHistory(manifest *export.Manifest, req ExportRequest, start time.Time, runErr error, log logger.Logger) {
	record := state.ExportRecord{
		RunID:     manifest.ID,
		UserID:    req.UserID,
		Scope:     string(req.Scope),
		StartTime: start,
		EndTime:   s.now(),
		Status:    state.StatusSuccess,
		Records:   manifest.Records(),
	}
	if runErr != nil {
		record.Error = runErr.Error()
		record.Status = state.StatusFailed
		if record.Records > 0 {
			record.Status = state.StatusPartial
		}
	}

	if _, err := s.stateMgr.SaveExport(record); err != nil {
		log.Error("failed to save export history", "error", err)
	}
}

// History returns the latest runs of userID, or of every user when userID
// is empty
func (s *ExportService) History(userID string, limit int) ([]state.ExportRecord, error) {
	if userID == "" {
		return s.stateMgr.GetAllHistory(limit)
	}
	return s.stateMgr.GetHistory(userID, limit)
}

// LastSuccess returns the newest successful run of userID, or nil
func (s *ExportService) LastSuccess(userID string) (*state.ExportRecord, error) {
	return s.stateMgr.GetLastSuccess(userID)
}

// Close releases the backend and the history database
func (s *ExportService) Close() error {
	var lastErr error
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			lastErr = err
		}
	}
	if s.stateMgr != nil {
		if err := s.stateMgr.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

var _ io.Closer = (*ExportService)(nil)
