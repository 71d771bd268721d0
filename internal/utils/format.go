package utils

import (
	"fmt"
)

const (
	// KiB is one kibibyte.
	KiB = 1024
	// MiB is one mebibyte.
	MiB = 1024 * KiB
)

// FormatSize formats a byte count as a human-readable string.
// E.g., "500 B", "2.00 KB", "5.00 MB"
func FormatSize(bytes int) string {
	switch {
	case bytes < KiB:
		return fmt.Sprintf("%d B", bytes)
	case bytes < MiB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KiB)
	default:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MiB)
	}
}
