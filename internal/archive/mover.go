// Package archive relocates processed daily documents out of the active
// input set and copies their resolved images to the output root.
package archive

import (
	"fmt"
	"path"

	"github.com/starford/matome/internal/models"
	"github.com/starford/matome/internal/storage"
)

// Outcome is the result of a relocate attempt.
type Outcome int

const (
	// Relocated means the document was moved out of the input set.
	Relocated Outcome = iota
	// CopiedNotDeleted means the archive copy exists but the original could
	// not be removed; the document will be re-encountered by later runs.
	CopiedNotDeleted
	// Failed means the document is still in place.
	Failed
)

// String returns the outcome name for diagnostics.
func (o Outcome) String() string {
	switch o {
	case Relocated:
		return "relocated"
	case CopiedNotDeleted:
		return "copied_not_deleted"
	default:
		return "failed"
	}
}

// Mover archives documents beneath archiveDir and copies images into outDir.
type Mover struct {
	store      storage.Provider
	archiveDir string
	outDir     string
}

// NewMover creates a Mover. archiveDir and outDir are vault-relative.
func NewMover(store storage.Provider, archiveDir, outDir string) *Mover {
	return &Mover{store: store, archiveDir: archiveDir, outDir: outDir}
}

// Relocate moves the document at rel into the archive directory. An atomic
// rename is tried first; when the filesystem refuses it, the fallback is
// copy-then-delete. The returned error describes the step that failed and is
// non-nil for any outcome other than Relocated.
func (m *Mover) Relocate(rel string) (Outcome, error) {
	dst := path.Join(m.archiveDir, path.Base(rel))
	if err := m.store.Rename(rel, dst); err == nil {
		return Relocated, nil
	}
	if err := m.store.Copy(rel, dst); err != nil {
		return Failed, fmt.Errorf("archive: copy fallback: %w", err)
	}
	if err := m.store.Remove(rel); err != nil {
		return CopiedNotDeleted, fmt.Errorf("archive: remove original: %w", err)
	}
	return Relocated, nil
}

// CopyImages copies each resolved reference's source file into the output
// root, flattening to the bare file name. Failures are returned per
// reference; the rest still copy.
func (m *Mover) CopyImages(refs []models.ImageReference) []error {
	var errs []error
	for _, ref := range refs {
		dst := path.Join(m.outDir, path.Base(ref.Source))
		if err := m.store.Copy(ref.Source, dst); err != nil {
			errs = append(errs, fmt.Errorf("archive: copy image %s: %w", ref.Source, err))
		}
	}
	return errs
}
