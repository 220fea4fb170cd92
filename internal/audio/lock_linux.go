//go:build linux

package audio

import "golang.org/x/sys/unix"

// LockMemory pins the process memory so the audio callbacks never wait on a
// page fault.
func LockMemory() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}
