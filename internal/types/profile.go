// Package types provides shared types used across the application.
package types

import (
	"net"
	"strconv"
	"time"
)

// ConfigKind tags the kind of a stored profile.
type ConfigKind string

const (
	// KindCustom is a profile backed by a raw configuration document.
	KindCustom ConfigKind = "custom"
	// KindVMess is a VMess share-link profile.
	KindVMess ConfigKind = "vmess"
	// KindVLESS is a VLESS share-link profile.
	KindVLESS ConfigKind = "vless"
	// KindTrojan is a Trojan share-link profile.
	KindTrojan ConfigKind = "trojan"
	// KindShadowsocks is a Shadowsocks share-link profile.
	KindShadowsocks ConfigKind = "shadowsocks"
	// KindSocks is a SOCKS profile.
	KindSocks ConfigKind = "socks"
	// KindHTTP is an HTTP proxy profile.
	KindHTTP ConfigKind = "http"
	// KindWireGuard is a WireGuard profile.
	KindWireGuard ConfigKind = "wireguard"
	// KindHysteria2 is a Hysteria2 profile.
	KindHysteria2 ConfigKind = "hysteria2"
)

// Valid reports whether k is one of the known kinds.
func (k ConfigKind) Valid() bool {
	switch k {
	case KindCustom, KindVMess, KindVLESS, KindTrojan, KindShadowsocks,
		KindSocks, KindHTTP, KindWireGuard, KindHysteria2:
		return true
	default:
		return false
	}
}

// Profile is the structured record of a stored network profile.
// The raw configuration text is stored alongside it, never inside it.
type Profile struct {
	// ID is the stable identifier assigned at creation.
	ID string `yaml:"id" json:"id"`
	// DisplayName is the user-facing label.
	DisplayName string `yaml:"display_name" json:"display_name"`
	// Kind is the profile kind.
	Kind ConfigKind `yaml:"kind" json:"kind"`
	// Host is the server host extracted from the raw text, "" when absent.
	Host string `yaml:"host,omitempty" json:"host,omitempty"`
	// Port is the server port extracted from the raw text, 0 when absent.
	Port int `yaml:"port,omitempty" json:"port,omitempty"`

	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// NewCustom returns an empty custom profile with the given id.
func NewCustom(id string) *Profile {
	return &Profile{
		ID:   id,
		Kind: KindCustom,
	}
}

// Endpoint returns "host:port", just the host when no port is known,
// or "" when no host is known.
func (p *Profile) Endpoint() string {
	if p.Host == "" {
		return ""
	}
	if p.Port == 0 {
		return p.Host
	}
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Clone returns a copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
