package utils

import (
	"testing"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 B"},
		{name: "bytes", bytes: 500, want: "500 B"},
		{name: "just below a kilobyte", bytes: 1023, want: "1023 B"},
		{name: "exactly one kilobyte", bytes: 1024, want: "1.00 KB"},
		{name: "kilobytes", bytes: 2048, want: "2.00 KB"},
		{name: "fractional kilobytes", bytes: 1536, want: "1.50 KB"},
		{name: "just below a megabyte", bytes: 1048575, want: "1024.00 KB"},
		{name: "exactly one megabyte", bytes: 1048576, want: "1.00 MB"},
		{name: "megabytes", bytes: 5242880, want: "5.00 MB"},
		{name: "fractional megabytes", bytes: 1572864, want: "1.50 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSize(tt.bytes); got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

