package profile

import (
	"time"

	"github.com/xabinapal/skiff/internal/types"
)

// Info represents profile information for listing.
type Info struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Kind     types.ConfigKind `json:"kind"`
	Endpoint string           `json:"endpoint,omitempty"`
	Selected bool             `json:"selected"`
}

// Status represents detailed status information for a single profile.
type Status struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Kind      types.ConfigKind `json:"kind"`
	Host      string           `json:"host,omitempty"`
	Port      int              `json:"port,omitempty"`
	RawSize   int              `json:"raw_size"`
	Size      string           `json:"size"`
	Large     bool             `json:"large"`
	Selected  bool             `json:"selected"`
	CreatedAt time.Time        `json:"created_at,omitempty"`
	UpdatedAt time.Time        `json:"updated_at,omitempty"`
}
