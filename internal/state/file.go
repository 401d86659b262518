package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// StateFileName is the document file inside the state directory.
const StateFileName = "state.json"

// FilePersister keeps the document in {dir}/state.json.
type FilePersister struct {
	dir string
}

func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	return &FilePersister{dir: dir}, nil
}

func (f *FilePersister) path() string {
	return filepath.Join(f.dir, StateFileName)
}

func (f *FilePersister) Location() string { return f.path() }

func (f *FilePersister) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("reading %s: %w", f.path(), err)
	}
	return data, nil
}

// Save writes to a temp file in the same directory, syncs it and renames it
// over the document.
func (f *FilePersister) Save(_ context.Context, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, StateFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming state file: %w", err)
	}
	return nil
}

// Quarantine renames the current file to state.json.corrupt-<unix>.
func (f *FilePersister) Quarantine(_ context.Context) (string, error) {
	dst := f.path() + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
	if err := os.Rename(f.path(), dst); err != nil {
		return "", fmt.Errorf("quarantining state file: %w", err)
	}
	return dst, nil
}
