// Package notify provides desktop notification support for skiff.
package notify

import (
	"github.com/xabinapal/skiff/internal/config"
)

// Notifier defines the interface for sending desktop notifications.
type Notifier interface {
	// NotifySizeAdvisory tells the user a loaded configuration is unusually large.
	NotifySizeAdvisory(title, message string) error
}

// Option configures a Notifier.
type Option func(*notifier)

// WithBackend sets a custom notification backend (for testing).
func WithBackend(backend Backend) Option {
	return func(n *notifier) {
		n.backend = backend
	}
}

// notifier sends desktop notifications using the system notification service.
type notifier struct {
	onSizeAdvisory bool
	backend        Backend
}

// NotifySizeAdvisory implements Notifier.
func (n *notifier) NotifySizeAdvisory(title, message string) error {
	if !n.onSizeAdvisory {
		return nil
	}
	return n.backend.Notify("Skiff: "+title, message, "")
}

// New creates a new Notifier based on the configuration.
func New(cfg config.NotificationConfig, opts ...Option) Notifier {
	n := &notifier{
		onSizeAdvisory: cfg.Enabled && cfg.OnSizeAdvisory,
		backend:        newDesktopBackend(),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}
