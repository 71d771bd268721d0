package store

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	gokeyring "github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/xabinapal/skiff/internal/types"
	"github.com/xabinapal/skiff/internal/utils"
)

const (
	// KeyringService is the keyring service that holds all profile entries.
	KeyringService = "skiff"

	indexUser = "index"
)

// KeyringStore keeps profiles in the OS keyring.
// Each id owns two entries, "profile:<id>" and "raw:<id>", and an "index"
// entry lists the known ids because keyrings cannot be enumerated.
type KeyringStore struct {
	locks   keyLocks
	indexMu sync.Mutex
	service string
}

// NewKeyringStore returns a store on the default keyring service.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: KeyringService}
}

// NewKeyringStoreWithService returns a store on the given keyring service.
func NewKeyringStoreWithService(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func recordUser(id string) string { return "profile:" + id }
func rawUser(id string) string { return "raw:" + id }

// IsAvailable checks if a secure keyring is available on this system.
func (k *KeyringStore) IsAvailable() error {
	_, err := gokeyring.Get(k.service, "__availability_check__")
	if err == nil || errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}

	errStr := err.Error()
	switch runtime.GOOS {
	case "linux":
		if utils.ContainsAny(errStr, "secret service", "dbus", "org.freedesktop.secrets") {
			return fmt.Errorf("%w: D-Bus secret service not available", ErrUnavailable)
		}
	case "darwin":
		if utils.ContainsAny(errStr, "keychain", "security") {
			return fmt.Errorf("%w: macOS Keychain not accessible", ErrUnavailable)
		}
	case "windows":
		if utils.ContainsAny(errStr, "credential", "wincred") {
			return fmt.Errorf("%w: Windows Credential Manager not accessible", ErrUnavailable)
		}
	}

	// Anything else surfaces with a better message from the real operation
	return nil
}

// Get implements Store.
func (k *KeyringStore) Get(id string) (*types.Profile, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	unlock := k.locks.lock(id)
	defer unlock()

	return k.readRecord(id)
}

func (k *KeyringStore) readRecord(id string) (*types.Profile, error) {
	data, err := gokeyring.Get(k.service, recordUser(id))
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get", id, wrapKeyringError(err))
	}

	var prof types.Profile
	if err := yaml.Unmarshal([]byte(data), &prof); err != nil {
		return nil, storageErr("get", id, fmt.Errorf("corrupt record: %w", err))
	}
	return &prof, nil
}

// GetRaw implements Store.
func (k *KeyringStore) GetRaw(id string) (string, error) {
	if id == "" {
		return "", ErrNotFound
	}

	unlock := k.locks.lock(id)
	defer unlock()

	raw, err := gokeyring.Get(k.service, rawUser(id))
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", storageErr("get-raw", id, wrapKeyringError(err))
	}
	return raw, nil
}

// Put implements Store.
// When the second write fails the first one is reverted.
func (k *KeyringStore) Put(id string, prof *types.Profile, raw string) error {
	if err := checkPut(id, prof); err != nil {
		return err
	}

	unlock := k.locks.lock(id)
	defer unlock()

	record, err := yaml.Marshal(withID(id, prof))
	if err != nil {
		return storageErr("put", id, fmt.Errorf("failed to marshal record: %w", err))
	}

	prevRecord, hadRecord, err := k.lookup(recordUser(id))
	if err != nil {
		return storageErr("put", id, err)
	}
	prevRaw, hadRaw, err := k.lookup(rawUser(id))
	if err != nil {
		return storageErr("put", id, err)
	}

	if err := gokeyring.Set(k.service, recordUser(id), string(record)); err != nil {
		return storageErr("put", id, wrapKeyringError(err))
	}

	if err := gokeyring.Set(k.service, rawUser(id), raw); err != nil {
		k.restore(recordUser(id), prevRecord, hadRecord)
		return storageErr("put", id, wrapKeyringError(err))
	}

	if err := k.updateIndex(id, true); err != nil {
		k.restore(recordUser(id), prevRecord, hadRecord)
		k.restore(rawUser(id), prevRaw, hadRaw)
		return storageErr("put", id, err)
	}
	return nil
}

// Remove implements Store.
func (k *KeyringStore) Remove(id string) error {
	if id == "" {
		return nil
	}

	unlock := k.locks.lock(id)
	defer unlock()

	prevRaw, hadRaw, err := k.lookup(rawUser(id))
	if err != nil {
		return storageErr("remove", id, err)
	}

	if hadRaw {
		if err := gokeyring.Delete(k.service, rawUser(id)); err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
			return storageErr("remove", id, wrapKeyringError(err))
		}
	}

	if err := gokeyring.Delete(k.service, recordUser(id)); err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		k.restore(rawUser(id), prevRaw, hadRaw)
		return storageErr("remove", id, wrapKeyringError(err))
	}

	// The entries are gone; a stale index line is skipped by List
	_ = k.updateIndex(id, false)
	return nil
}

// List implements Store.
func (k *KeyringStore) List() ([]*types.Profile, error) {
	ids, err := k.readIndex()
	if err != nil {
		return nil, storageErr("list", "", err)
	}

	list := make([]*types.Profile, 0, len(ids))
	for _, id := range ids {
		unlock := k.locks.lock(id)
		prof, err := k.readRecord(id)
		unlock()

		if errors.Is(err, ErrNotFound) {
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

// lookup reads an entry and reports whether it existed.
func (k *KeyringStore) lookup(user string) (string, bool, error) {
	v, err := gokeyring.Get(k.service, user)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, wrapKeyringError(err)
	}
	return v, true, nil
}

// restore puts an entry back to its previous state, best effort.
func (k *KeyringStore) restore(user, prev string, existed bool) {
	if existed {
		_ = gokeyring.Set(k.service, user, prev)
		return
	}
	_ = gokeyring.Delete(k.service, user)
}

func (k *KeyringStore) readIndex() ([]string, error) {
	k.indexMu.Lock()
	defer k.indexMu.Unlock()
	return k.readIndexLocked()
}

func (k *KeyringStore) readIndexLocked() ([]string, error) {
	data, err := gokeyring.Get(k.service, indexUser)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return nil, nil
		}
		return nil, wrapKeyringError(err)
	}

	var ids []string
	for _, line := range strings.Split(data, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	return ids, nil
}

// updateIndex adds or drops id in the index entry.
func (k *KeyringStore) updateIndex(id string, present bool) error {
	k.indexMu.Lock()
	defer k.indexMu.Unlock()

	ids, err := k.readIndexLocked()
	if err != nil {
		return err
	}

	set := make(map[string]struct{}, len(ids)+1)
	for _, existing := range ids {
		set[existing] = struct{}{}
	}
	if _, ok := set[id]; ok == present {
		return nil
	}
	if present {
		set[id] = struct{}{}
	} else {
		delete(set, id)
	}

	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)

	if len(out) == 0 {
		if err := gokeyring.Delete(k.service, indexUser); err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
			return wrapKeyringError(err)
		}
		return nil
	}
	if err := gokeyring.Set(k.service, indexUser, strings.Join(out, "\n")); err != nil {
		return wrapKeyringError(err)
	}
	return nil
}

// wrapKeyringError maps keyring failures onto store errors.
func wrapKeyringError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gokeyring.ErrSetDataTooBig) {
		return fmt.Errorf("entry too large for keyring: %w", err)
	}

	errStr := err.Error()
	if utils.ContainsAny(errStr, "denied", "permission", "not allowed", "unauthorized") {
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	if utils.ContainsAny(errStr, "no keyring", "unavailable", "secret service") {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
