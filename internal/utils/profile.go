package utils

// IsValidProfileID checks if a profile identifier contains only safe characters.
// This prevents log injection from ids supplied through flags or env vars.
func IsValidProfileID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
