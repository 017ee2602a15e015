// Package persist loads and saves whole planner collections.
//
// Both backends are last-writer-wins: a Save replaces everything that was
// stored before it.
package persist

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pbaille/contentforge/internal/domain"
	"github.com/pbaille/contentforge/internal/session"
)

// Snapshot is everything a session needs to resume
type Snapshot struct {
	Planner []domain.PlannerEvent
	History []domain.PlannerEvent
	Session *session.Session
}

// Backend stores snapshots
type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Open returns the named backend rooted at dataDir
func Open(kind, dataDir string) (Backend, error) {
	switch kind {
	case "json", "":
		return NewJSONFiles(dataDir)
	case "sqlite":
		return NewSQLite(filepath.Join(dataDir, "contentforge.db"))
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

// CorruptFileError reports a data file that could not be decoded
type CorruptFileError struct {
	Path string
	Err  error
}

func (e *CorruptFileError) Error() string {
	return fmt.Sprintf("corrupt data file %s: %v (restore from %s.bak if available)", e.Path, e.Err, e.Path)
}

func (e *CorruptFileError) Unwrap() error {
	return e.Err
}
