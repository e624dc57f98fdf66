package service

import (
	"fmt"
	"io"

	"github.com/Ning0612/dataexporter/internal/config"
	"github.com/Ning0612/dataexporter/internal/core/checksum"
	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/filesystem"
	"github.com/Ning0612/dataexporter/internal/filesystem/cachefs"
	"github.com/Ning0612/dataexporter/internal/filesystem/localfs"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBackend opens the filesystem selected by cfg. The returned closer
// releases backend resources and is never nil.
func OpenBackend(cfg config.FilesystemConfig) (filesystem.RootFolder, io.Closer, error) {
	switch cfg.Type {
	case config.BackendLocal:
		fs, err := localfs.New(cfg.DataDir, localfs.Options{
			ETag:      localfs.ETagMode(cfg.ETag),
			Algorithm: checksum.Algorithm(cfg.ETagAlgorithm),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local backend: %w", err)
		}
		return fs, nopCloser{}, nil

	case config.BackendSQLite:
		fs, err := cachefs.Open(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite backend: %w", err)
		}
		return fs, fs, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrBackendNotSupported, cfg.Type)
	}
}
