//go:build !linux

package threads

// Bind is a no-op where thread affinity is not supported.
func Bind(int) error { return nil }
