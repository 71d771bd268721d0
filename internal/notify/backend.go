package notify

import "github.com/gen2brain/beeep"

// Backend defines the interface for the notification backend.
type Backend interface {
	// Notify sends a standard notification.
	Notify(title, message, iconPath string) error
}

// desktopBackend implements Backend by calling beeep directly.
type desktopBackend struct{}

// Notify implements Backend.
func (desktopBackend) Notify(title, message, iconPath string) error {
	return beeep.Notify(title, message, iconPath)
}

func newDesktopBackend() Backend {
	return desktopBackend{}
}
