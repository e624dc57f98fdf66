// Package export assembles and encodes export manifests.
package export

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ning0612/dataexporter/internal/domain"
)

// Scope selects which trees of a user an export walks
type Scope string

const (
	ScopeFiles    Scope = "files"
	ScopeTrashBin Scope = "trashbin"
	ScopeAll      Scope = "all"
)

// IncludesFiles reports whether the home folder is walked
func (s Scope) IncludesFiles() bool { return s == ScopeFiles || s == ScopeAll }

// IncludesTrashBin reports whether the trash bin is walked
func (s Scope) IncludesTrashBin() bool { return s == ScopeTrashBin || s == ScopeAll }

// Manifest is the document written for one export run
type Manifest struct {
	// ID identifies the run; history rows carry the same value
	ID       string          `json:"id" yaml:"id"`
	Metadata domain.Metadata `json:"metadata" yaml:"metadata"`
	Files    []domain.File   `json:"files" yaml:"files"`
	TrashBin []domain.File   `json:"trashbin,omitempty" yaml:"trashbin,omitempty"`
}

// NewManifest starts a manifest for userID with a fresh run id
func NewManifest(userID, originServer string, now time.Time) *Manifest {
	return &Manifest{
		ID: uuid.NewString(),
		Metadata: domain.Metadata{
			Date:         now.UTC(),
			OriginServer: originServer,
			User:         domain.User{UserID: userID},
		},
		Files: []domain.File{},
	}
}

// Records counts file and trash-bin records
func (m *Manifest) Records() int {
	return len(m.Files) + len(m.TrashBin)
}
