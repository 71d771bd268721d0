package types

import (
	"testing"
)

func TestConfigKind_Valid(t *testing.T) {
	tests := []struct {
		kind ConfigKind
		want bool
	}{
		{KindCustom, true},
		{KindVMess, true},
		{KindVLESS, true},
		{KindTrojan, true},
		{KindShadowsocks, true},
		{KindSocks, true},
		{KindHTTP, true},
		{KindWireGuard, true},
		{KindHysteria2, true},
		{ConfigKind(""), false},
		{ConfigKind("tuic"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Valid(); got != tt.want {
				t.Errorf("ConfigKind(%q).Valid() = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestNewCustom(t *testing.T) {
	prof := NewCustom("abc")
	if prof.ID != "abc" {
		t.Errorf("expected ID 'abc', got %q", prof.ID)
	}
	if prof.Kind != KindCustom {
		t.Errorf("expected kind %q, got %q", KindCustom, prof.Kind)
	}
	if prof.DisplayName != "" || prof.Host != "" || prof.Port != 0 {
		t.Errorf("expected empty fields, got %+v", prof)
	}
}

func TestProfile_Endpoint(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		want    string
	}{
		{
			name:    "host and port",
			profile: &Profile{Host: "1.2.3.4", Port: 443},
			want:    "1.2.3.4:443",
		},
		{
			name:    "ipv6 host",
			profile: &Profile{Host: "2001:db8::1", Port: 8443},
			want:    "[2001:db8::1]:8443",
		},
		{
			name:    "host only",
			profile: &Profile{Host: "example.com"},
			want:    "example.com",
		},
		{
			name:    "port without host",
			profile: &Profile{Port: 443},
			want:    "",
		},
		{
			name:    "empty",
			profile: &Profile{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.Endpoint(); got != tt.want {
				t.Errorf("Endpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProfile_Clone(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		var p *Profile
		if p.Clone() != nil {
			t.Error("expected nil clone of nil profile")
		}
	})

	t.Run("independent copy", func(t *testing.T) {
		orig := &Profile{ID: "id1", DisplayName: "A", Kind: KindCustom, Host: "h", Port: 1}
		c := orig.Clone()
		c.DisplayName = "B"
		if orig.DisplayName != "A" {
			t.Errorf("modifying clone changed original: %q", orig.DisplayName)
		}
		if c.ID != orig.ID || c.Host != orig.Host || c.Port != orig.Port {
			t.Errorf("clone differs from original: %+v vs %+v", c, orig)
		}
	})
}
