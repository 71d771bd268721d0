// Package guard decides whether a profile may be modified while a tunnel runs.
package guard

import "github.com/xabinapal/skiff/internal/logging"

// ActiveSource reports the id of the profile currently used by the tunnel
// runtime, or "" when none is selected.
type ActiveSource interface {
	ActiveID() (string, error)
}

// Guard locks the active profile while the tunnel is running.
type Guard struct {
	source ActiveSource
	logger *logging.Logger
}

// New creates a guard reading the active id from source.
// A nil logger discards output.
func New(source ActiveSource, logger *logging.Logger) *Guard {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Guard{source: source, logger: logger}
}

// IsLocked reports whether id is the active profile and the caller believes
// the tunnel is running. Both signals are required. The active id is read on
// every call and a failed read counts as not active.
func (g *Guard) IsLocked(id string, runningHint bool) bool {
	if id == "" || !runningHint || g == nil || g.source == nil {
		return false
	}

	active, err := g.source.ActiveID()
	if err != nil {
		g.logger.Warn("failed to read active profile", logging.Fields{
			"id":    id,
			"error": err.Error(),
		})
		return false
	}
	return active == id
}

// StaticSource is an ActiveSource with a fixed answer.
type StaticSource struct {
	ID  string
	Err error
}

// ActiveID implements ActiveSource.
func (s StaticSource) ActiveID() (string, error) {
	return s.ID, s.Err
}
