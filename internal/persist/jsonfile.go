package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pbaille/contentforge/internal/domain"
	"github.com/pbaille/contentforge/internal/session"
)

const (
	plannerFile = "planner.json"
	historyFile = "history.json"
	sessionFile = "session.json"
)

// JSONFiles keeps one JSON document per collection in a directory
type JSONFiles struct {
	dir string
}

// NewJSONFiles creates the data directory if needed
func NewJSONFiles(dir string) (*JSONFiles, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONFiles{dir: dir}, nil
}

// Dir returns the data directory
func (j *JSONFiles) Dir() string {
	return j.dir
}

// Load reads all collections. Missing files load as empty.
func (j *JSONFiles) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := readJSON(j.path(plannerFile), &snap.Planner); err != nil {
		return Snapshot{}, err
	}
	if err := readJSON(j.path(historyFile), &snap.History); err != nil {
		return Snapshot{}, err
	}

	var sess session.Session
	found, err := readOptional(j.path(sessionFile), &sess)
	if err != nil {
		return Snapshot{}, err
	}
	if found {
		snap.Session = &sess
	}

	if snap.Planner == nil {
		snap.Planner = []domain.PlannerEvent{}
	}
	if snap.History == nil {
		snap.History = []domain.PlannerEvent{}
	}
	return snap, nil
}

// Save writes every collection, each one atomically
func (j *JSONFiles) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	planner := snap.Planner
	if planner == nil {
		planner = []domain.PlannerEvent{}
	}
	history := snap.History
	if history == nil {
		history = []domain.PlannerEvent{}
	}

	if err := writeJSON(j.path(plannerFile), planner); err != nil {
		return err
	}
	if err := writeJSON(j.path(historyFile), history); err != nil {
		return err
	}
	if snap.Session != nil {
		if err := writeJSON(j.path(sessionFile), snap.Session); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; files are not held open
func (j *JSONFiles) Close() error {
	return nil
}

func (j *JSONFiles) path(name string) string {
	return filepath.Join(j.dir, name)
}

func readJSON(path string, v any) error {
	_, err := readOptional(path, v)
	return err
}

func readOptional(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, &CorruptFileError{Path: path, Err: err}
	}
	return true, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	if err := backup(path); err != nil {
		return fmt.Errorf("backup %s: %w", filepath.Base(path), err)
	}

	// write to a temp file in the same directory, then rename over the target
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}
	return nil
}

func backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.WriteFile(path+".bak", data, 0644)
}
