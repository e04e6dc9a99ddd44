//go:build !unix

package security

import "os"

func lockFile(f *os.File) error    { return nil }
func tryLockFile(f *os.File) error { return nil }
func unlockFile(f *os.File) error  { return nil }

// ProcessAlive reports whether a process with the given pid exists.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	p.Release()
	return true
}
