package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xabinapal/skiff/internal/types"
	"github.com/xabinapal/skiff/internal/utils"
)

const (
	recordFileName = "profile.yaml"
	rawFileName    = "config.raw"

	stagingPrefix  = ".staging-"
	replacedPrefix = ".replaced-"
	removedPrefix  = ".removed-"
)

// FileStore keeps each profile in its own directory:
//
//	<dir>/<key>/profile.yaml   structured record
//	<dir>/<key>/config.raw     raw configuration text
//
// A Put builds the new directory next to the old one and swaps it in with
// renames, so the pair is always replaced as a unit.
type FileStore struct {
	locks keyLocks
	dir   string
}

// NewFileStore creates a file store rooted at dir and cleans up any
// half-finished swaps left behind by an interrupted process.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory path is required")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	f := &FileStore{dir: dir}
	if err := f.recover(); err != nil {
		return nil, fmt.Errorf("failed to recover store directory: %w", err)
	}
	return f, nil
}

// Dir returns the store directory.
func (f *FileStore) Dir() string {
	return f.dir
}

// IsAvailable implements Store.
func (f *FileStore) IsAvailable() error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("%w: directory not accessible: %v", ErrUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: path is not a directory", ErrUnavailable)
	}
	return nil
}

// entryPath returns the directory of an id and its sanitized key.
// The result is verified to stay inside the store directory.
func (f *FileStore) entryPath(id string) (string, string, error) {
	key := utils.SanitizeKey(id)
	fullPath := filepath.Join(f.dir, key)

	absDir, err := filepath.Abs(f.dir)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve directory: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
		return "", "", fmt.Errorf("invalid id: path traversal detected")
	}

	return fullPath, key, nil
}

// sideName builds the name of a staging or trash directory for key.
func sideName(prefix, key string) string {
	return prefix + strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + key
}

// Get implements Store.
func (f *FileStore) Get(id string) (*types.Profile, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	path, key, err := f.entryPath(id)
	if err != nil {
		return nil, storageErr("get", id, err)
	}

	unlock := f.locks.lock(key)
	defer unlock()

	prof, err := readRecord(filepath.Join(path, recordFileName), id)
	if err != nil {
		return nil, err
	}
	// Every record names its own key
	if prof.ID != id {
		return nil, ErrNotFound
	}
	return prof, nil
}

func readRecord(path, id string) (*types.Profile, error) {
	// #nosec G304 - path is built by entryPath inside the store directory
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get", id, err)
	}

	var prof types.Profile
	if err := yaml.Unmarshal(data, &prof); err != nil {
		return nil, storageErr("get", id, fmt.Errorf("corrupt record: %w", err))
	}
	return &prof, nil
}

// GetRaw implements Store.
func (f *FileStore) GetRaw(id string) (string, error) {
	if id == "" {
		return "", ErrNotFound
	}
	path, key, err := f.entryPath(id)
	if err != nil {
		return "", storageErr("get-raw", id, err)
	}

	unlock := f.locks.lock(key)
	defer unlock()

	// #nosec G304 - path is built by entryPath inside the store directory
	data, err := os.ReadFile(filepath.Join(path, rawFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", storageErr("get-raw", id, err)
	}
	return string(data), nil
}

// Put implements Store.
func (f *FileStore) Put(id string, prof *types.Profile, raw string) error {
	if err := checkPut(id, prof); err != nil {
		return err
	}
	final, key, err := f.entryPath(id)
	if err != nil {
		return storageErr("put", id, err)
	}

	unlock := f.locks.lock(key)
	defer unlock()

	if err := f.IsAvailable(); err != nil {
		return storageErr("put", id, err)
	}

	record, err := yaml.Marshal(withID(id, prof))
	if err != nil {
		return storageErr("put", id, fmt.Errorf("failed to marshal record: %w", err))
	}

	stage := filepath.Join(f.dir, sideName(stagingPrefix, key))
	if err := os.Mkdir(stage, 0700); err != nil {
		return storageErr("put", id, err)
	}
	staged := false
	defer func() {
		if !staged {
			_ = os.RemoveAll(stage)
		}
	}()

	if err := writeSynced(filepath.Join(stage, recordFileName), record); err != nil {
		return storageErr("put", id, err)
	}
	if err := writeSynced(filepath.Join(stage, rawFileName), []byte(raw)); err != nil {
		return storageErr("put", id, err)
	}

	// Move the current entry aside, then swap the staged one in
	var replaced string
	if _, err := os.Lstat(final); err == nil {
		replaced = filepath.Join(f.dir, sideName(replacedPrefix, key))
		if err := os.Rename(final, replaced); err != nil {
			return storageErr("put", id, err)
		}
	} else if !os.IsNotExist(err) {
		return storageErr("put", id, err)
	}

	if err := os.Rename(stage, final); err != nil {
		if replaced != "" {
			_ = os.Rename(replaced, final)
		}
		return storageErr("put", id, err)
	}
	staged = true

	if replaced != "" {
		_ = os.RemoveAll(replaced)
	}
	return nil
}

// Remove implements Store.
func (f *FileStore) Remove(id string) error {
	if id == "" {
		return nil
	}
	final, key, err := f.entryPath(id)
	if err != nil {
		return storageErr("remove", id, err)
	}

	unlock := f.locks.lock(key)
	defer unlock()

	if _, err := os.Lstat(final); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return storageErr("remove", id, err)
	}

	// One rename hides record and raw text together
	trash := filepath.Join(f.dir, sideName(removedPrefix, key))
	if err := os.Rename(final, trash); err != nil {
		return storageErr("remove", id, err)
	}
	// Leftovers are swept by recover on the next open
	_ = os.RemoveAll(trash)
	return nil
}

// List implements Store.
func (f *FileStore) List() ([]*types.Profile, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, storageErr("list", "", err)
	}

	list := make([]*types.Profile, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		unlock := f.locks.lock(e.Name())
		prof, err := readRecord(filepath.Join(f.dir, e.Name(), recordFileName), e.Name())
		unlock()

		if errors.Is(err, ErrNotFound) {
			// Removed between ReadDir and the read
			continue
		}
		if err != nil {
			return nil, err
		}
		list = append(list, prof)
	}

	sortProfiles(list)
	return list, nil
}

// recover finishes or undoes swaps interrupted by a crash.
// Staging and removed directories are dropped. A replaced directory is put
// back only when its entry is missing, i.e. the crash hit between the renames.
func (f *FileStore) recover() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasPrefix(name, stagingPrefix), strings.HasPrefix(name, removedPrefix):
			if err := os.RemoveAll(filepath.Join(f.dir, name)); err != nil {
				return err
			}
		case strings.HasPrefix(name, replacedPrefix):
			parts := strings.SplitN(strings.TrimPrefix(name, replacedPrefix), "-", 2)
			side := filepath.Join(f.dir, name)
			if len(parts) != 2 || parts[1] == "" {
				if err := os.RemoveAll(side); err != nil {
					return err
				}
				continue
			}
			final := filepath.Join(f.dir, parts[1])
			if _, err := os.Lstat(final); os.IsNotExist(err) {
				if err := os.Rename(side, final); err != nil {
					return err
				}
				continue
			}
			if err := os.RemoveAll(side); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeSynced writes data to a new file and flushes it to disk.
func writeSynced(path string, data []byte) error {
	// #nosec G304 - path is inside a staging directory created by Put
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
