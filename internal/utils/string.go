package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// maxPlainKey is the longest key kept verbatim as a filename.
const maxPlainKey = 128

// SanitizeKey maps a key to a filename. Distinct keys give distinct names.
// Keys made only of lowercase letters, digits, '_' and '-' are kept as is;
// any other key becomes "~" followed by its hex SHA-256, so it can neither
// collide with a plain key nor escape the directory. Uppercase is hashed
// because filesystems may fold case.
func SanitizeKey(key string) string {
	if isPlainKey(key) {
		return key
	}
	h := sha256.Sum256([]byte(key))
	return "~" + hex.EncodeToString(h[:])
}

func isPlainKey(key string) bool {
	if len(key) > maxPlainKey {
		return false
	}
	for _, c := range []byte(key) {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' && c != '-' {
			return false
		}
	}
	return true
}

// ContainsAny checks if s contains any of the substrings (case-insensitive).
func ContainsAny(s string, substrings ...string) bool {
	sLower := strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(sLower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// FirstNonBlank returns the first value that is not empty after trimming spaces.
func FirstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
