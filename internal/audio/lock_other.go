//go:build !linux

package audio

// LockMemory is a no-op on platforms without mlockall.
func LockMemory() error {
	return nil
}
