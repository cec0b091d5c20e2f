//go:build windows

package sys

// ValueStackLimit returns fallback; Windows has no stack resource limit
// to consult.
func ValueStackLimit(fallback int) int { return fallback }
