// Package storage keeps the spreadsheet artifacts of every stage under one
// root directory.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sawaliram/sawaliram/internal/sheet"
)

// Stage is an artifact subdirectory.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageUncurated Stage = "uncurated"
	StageUnencoded Stage = "unencoded"
)

// Stages lists every artifact subdirectory.
var Stages = []Stage{StageRaw, StageUncurated, StageUnencoded}

// ErrStorageWrite is returned when an artifact cannot be written.
var ErrStorageWrite = errors.New("storage write failed")

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// RawName is the file name of the original sheet of a raw batch.
func RawName(batchID int64) string { return fmt.Sprintf("dataset_%d_raw.xlsx", batchID) }

// UncuratedName is the file name of the curation sheet of a raw batch.
func UncuratedName(batchID int64) string { return fmt.Sprintf("dataset_%d_uncurated.xlsx", batchID) }

// UnencodedName is the file name of the encoding sheet of a curated batch.
func UnencodedName(submissionID int64) string {
	return fmt.Sprintf("unencoded_dataset_%d.xlsx", submissionID)
}

// Root is an artifact store rooted at a directory.
type Root struct {
	dir string
}

// New returns a store rooted at dir. Directories are created on first write.
func New(dir string) *Root {
	return &Root{dir: dir}
}

// Dir returns the root directory.
func (r *Root) Dir() string { return r.dir }

// Path returns the file path of an artifact. name must be a bare file name.
func (r *Root) Path(stage Stage, name string) (string, error) {
	if !validStage(stage) {
		return "", fmt.Errorf("unknown artifact stage %q", stage)
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(r.dir, string(stage), name), nil
}

func validStage(stage Stage) bool {
	for _, s := range Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Save writes s as an xlsx artifact and returns its path. The file appears
// atomically: it is written under a temporary name and then renamed.
func (r *Root) Save(stage Stage, name string, s *sheet.Sheet) (string, error) {
	path, err := r.Path(stage, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	defer os.Remove(tmp.Name())

	if err := sheet.WriteXLSX(tmp, s); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %s: %v", ErrStorageWrite, name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrStorageWrite, name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrStorageWrite, name, err)
	}
	return path, nil
}

// Open opens a stored artifact for reading.
func (r *Root) Open(stage Stage, name string) (io.ReadCloser, error) {
	path, err := r.Path(stage, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, stage, name)
	}
	return f, err
}

// Load reads a stored artifact back into a sheet.
func (r *Root) Load(stage Stage, name string) (*sheet.Sheet, error) {
	rc, err := r.Open(stage, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return sheet.ReadXLSX(rc)
}

// Remove deletes an artifact. A missing file is not an error.
func (r *Root) Remove(stage Stage, name string) error {
	path, err := r.Path(stage, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the artifact names of one stage, sorted.
func (r *Root) List(stage Stage) ([]string, error) {
	if !validStage(stage) {
		return nil, fmt.Errorf("unknown artifact stage %q", stage)
	}
	entries, err := os.ReadDir(filepath.Join(r.dir, string(stage)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
