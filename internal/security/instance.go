package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrAlreadyRunning is returned when another process holds the instance lock.
var ErrAlreadyRunning = errors.New("security: another instance is running")

// InstanceLock is a pid file held under an exclusive lock for the lifetime
// of the process.
type InstanceLock struct {
	path string
	file *os.File
}

// AcquireInstance takes the pid file at path. It fails with
// ErrAlreadyRunning when a live process owns it; a pid file left behind by
// a dead process is taken over.
func AcquireInstance(path string) (*InstanceLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), PermSecretDir); err != nil {
		return nil, fmt.Errorf("create pid dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, PermSecretFile)
	if err != nil {
		return nil, fmt.Errorf("open pid file: %w", err)
	}
	if err := tryLockFile(f); err != nil {
		pid := readPID(f)
		f.Close()
		if ProcessAlive(pid) {
			return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		return nil, fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
	}

	if err := f.Truncate(0); err != nil {
		unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("truncate pid file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &InstanceLock{path: path, file: f}, nil
}

func readPID(f *os.File) int {
	buf := make([]byte, 32)
	n, _ := f.ReadAt(buf, 0)
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}
	return pid
}

// Release removes the pid file and drops the lock.
func (l *InstanceLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	os.Remove(l.path)
	unlockFile(l.file)
	err := l.file.Close()
	l.file = nil
	return err
}
