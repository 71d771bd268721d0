// Package profile provides read-side views over stored profiles and the
// selection used by the tunnel runtime.
package profile

import (
	"errors"
	"fmt"

	"github.com/xabinapal/skiff/internal/editor"
	"github.com/xabinapal/skiff/internal/guard"
	"github.com/xabinapal/skiff/internal/store"
	"github.com/xabinapal/skiff/internal/utils"
)

// ErrNoSelection is returned when no profile is selected.
var ErrNoSelection = errors.New("no profile selected - use 'skiff profile use <id>' to select one")

// Selector changes the selected profile.
type Selector interface {
	guard.ActiveSource
	SetActiveID(id string) error
}

// Manager lists and inspects profiles and manages the selection.
type Manager struct {
	store    store.Store
	selector Selector
}

// NewManager creates a Manager over st and the selection sel.
func NewManager(st store.Store, sel Selector) *Manager {
	return &Manager{store: st, selector: sel}
}

func (m *Manager) selected() string {
	if m.selector == nil {
		return ""
	}
	id, err := m.selector.ActiveID()
	if err != nil {
		return ""
	}
	return id
}

// List returns information about all stored profiles.
func (m *Manager) List() ([]Info, error) {
	profiles, err := m.store.List()
	if err != nil {
		return nil, err
	}

	active := m.selected()
	list := make([]Info, 0, len(profiles))
	for _, p := range profiles {
		list = append(list, Info{
			ID:       p.ID,
			Name:     p.DisplayName,
			Kind:     p.Kind,
			Endpoint: p.Endpoint(),
			Selected: active != "" && p.ID == active,
		})
	}
	return list, nil
}

// Status returns detailed information about the profile id.
func (m *Manager) Status(id string) (*Status, error) {
	prof, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	raw, err := m.store.GetRaw(id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	return &Status{
		ID:        prof.ID,
		Name:      prof.DisplayName,
		Kind:      prof.Kind,
		Host:      prof.Host,
		Port:      prof.Port,
		RawSize:   len(raw),
		Size:      utils.FormatSize(len(raw)),
		Large:     len(raw) > editor.SizeAdvisoryThreshold,
		Selected:  id == m.selected(),
		CreatedAt: prof.CreatedAt,
		UpdatedAt: prof.UpdatedAt,
	}, nil
}

// Current returns the status of the selected profile.
func (m *Manager) Current() (*Status, error) {
	id := m.selected()
	if id == "" {
		return nil, ErrNoSelection
	}
	return m.Status(id)
}

// Select marks id as the selected profile. The profile must exist.
func (m *Manager) Select(id string) error {
	if m.selector == nil {
		return errors.New("selection is not configurable")
	}
	if _, err := m.store.Get(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("profile %q not found", id)
		}
		return err
	}
	return m.selector.SetActiveID(id)
}

// Unselect clears the selection.
func (m *Manager) Unselect() error {
	if m.selector == nil {
		return errors.New("selection is not configurable")
	}
	return m.selector.SetActiveID("")
}
