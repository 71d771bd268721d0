// Package store provides persistence of profile records and their raw
// configuration text.
//
// Every backend keeps the record and the raw text of an id consistent:
// Put and Remove either apply to both or to neither.
package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/xabinapal/skiff/internal/config"
	"github.com/xabinapal/skiff/internal/types"
)

var (
	// ErrNotFound is returned when no entry exists for an id.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidID is returned when an id is empty.
	ErrInvalidID = errors.New("profile id cannot be empty")
	// ErrProfileNil is returned when Put is given a nil profile.
	ErrProfileNil = errors.New("profile cannot be nil")
	// ErrInvalidKind is returned when a record carries an unknown profile kind.
	ErrInvalidKind = errors.New("unknown profile kind")

	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("profile storage failure")
	// ErrUnavailable is returned when the backing storage cannot be reached.
	ErrUnavailable = errors.New("profile store is not available")
	// ErrAccessDenied is returned when access to the backing storage is denied.
	ErrAccessDenied = errors.New("access to profile store denied")
)

const (
	// TestStoreEnvVar is the environment variable that, when set to a directory path,
	// forces a file store in that directory regardless of configuration.
	// This is intended for testing purposes only.
	TestStoreEnvVar = "SKIFF_TEST_STORE_DIR"
)

// StorageError reports a failure of the backing storage.
type StorageError struct {
	// Op is the store operation that failed (get, get-raw, put, remove, list).
	Op string
	// ID is the profile id involved, if any.
	ID string
	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes every StorageError match ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op, id string, err error) error {
	return &StorageError{Op: op, ID: id, Err: err}
}

// Store is a keyed persistence of profile records and raw text.
type Store interface {
	// IsAvailable checks if the backing storage is reachable.
	IsAvailable() error
	// Get returns the record for id, or ErrNotFound.
	Get(id string) (*types.Profile, error)
	// GetRaw returns the raw text for id, or ErrNotFound.
	GetRaw(id string) (string, error)
	// Put replaces both the record and the raw text for id.
	Put(id string, prof *types.Profile, raw string) error
	// Remove deletes both the record and the raw text for id.
	// Removing an absent id is not an error.
	Remove(id string) error
	// List returns all records sorted by display name.
	List() ([]*types.Profile, error)
}

// New returns the store selected by the configuration.
// If SKIFF_TEST_STORE_DIR is set, a file store in that directory is used instead.
func New(cfg *config.Config) (Store, error) {
	if testDir := os.Getenv(TestStoreEnvVar); testDir != "" {
		return NewFileStore(testDir)
	}

	if cfg == nil {
		cfg = config.Default()
	}

	switch cfg.Store.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.StoreDir())
	case config.BackendKeyring:
		return NewKeyringStore(), nil
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Store.Backend)
	}
}

// keyLocks hands out one mutex per id so Put/Remove pairs never interleave.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyLocks) lock(id string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// checkPut validates the arguments of Put.
func checkPut(id string, prof *types.Profile) error {
	if id == "" {
		return ErrInvalidID
	}
	if prof == nil {
		return ErrProfileNil
	}
	if !prof.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, prof.Kind)
	}
	return nil
}

// withID returns a copy of prof carrying id, so a record always names its key.
func withID(id string, prof *types.Profile) *types.Profile {
	c := prof.Clone()
	c.ID = id
	return c
}

// sortProfiles orders records by display name, then id.
func sortProfiles(list []*types.Profile) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].DisplayName != list[j].DisplayName {
			return list[i].DisplayName < list[j].DisplayName
		}
		return list[i].ID < list[j].ID
	})
}
