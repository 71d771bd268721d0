package editor

import "github.com/xabinapal/skiff/internal/types"

// Presenter renders the outcomes of an editing session.
type Presenter interface {
	// SizeAdvisory is shown when a loaded configuration is unusually large.
	// It never blocks loading.
	SizeAdvisory(title, message string)
	// ValidationFailed is shown when a save or delete is rejected.
	ValidationFailed(message string)
	// Saved acknowledges a successful save. The session is closed afterwards.
	Saved(prof *types.Profile)
	// Deleted acknowledges a successful delete.
	Deleted(id string)
}

// NopPresenter ignores every outcome.
type NopPresenter struct{}

// SizeAdvisory implements Presenter.
func (NopPresenter) SizeAdvisory(string, string) {}

// ValidationFailed implements Presenter.
func (NopPresenter) ValidationFailed(string) {}

// Saved implements Presenter.
func (NopPresenter) Saved(*types.Profile) {}

// Deleted implements Presenter.
func (NopPresenter) Deleted(string) {}
