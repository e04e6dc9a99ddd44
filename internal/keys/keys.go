// Package keys synthesizes the editing shortcuts used to move text in and
// out of applications that do not expose it to the accessibility API.
package keys

import (
	"errors"
	"sync"
)

// ErrUnsupportedPlatform is returned where keystroke synthesis is missing.
var ErrUnsupportedPlatform = errors.New("keys: keystroke synthesis not available on this platform")

// Shortcut is a command-modified key chord.
type Shortcut int

const (
	Copy Shortcut = iota
	Paste
	SelectAll
)

func (s Shortcut) String() string {
	switch s {
	case Copy:
		return "copy"
	case Paste:
		return "paste"
	case SelectAll:
		return "select-all"
	default:
		return "unknown"
	}
}

// Virtual key codes of the ANSI layout.
const (
	keyCodeA = 0
	keyCodeC = 8
	keyCodeV = 9
)

func (s Shortcut) keyCode() int {
	switch s {
	case Copy:
		return keyCodeC
	case Paste:
		return keyCodeV
	default:
		return keyCodeA
	}
}

// Synthesizer posts shortcuts to the frontmost application.
type Synthesizer interface {
	Send(s Shortcut) error
}

// Recorder is a Synthesizer that logs shortcuts and runs optional hooks,
// letting tests simulate how the target application reacts.
type Recorder struct {
	mu   sync.Mutex
	sent []Shortcut

	OnCopy      func()
	OnPaste     func()
	OnSelectAll func()
}

func (r *Recorder) Send(s Shortcut) error {
	r.mu.Lock()
	r.sent = append(r.sent, s)
	r.mu.Unlock()

	var hook func()
	switch s {
	case Copy:
		hook = r.OnCopy
	case Paste:
		hook = r.OnPaste
	case SelectAll:
		hook = r.OnSelectAll
	}
	if hook != nil {
		hook()
	}
	return nil
}

// Sent returns the shortcuts posted so far.
func (r *Recorder) Sent() []Shortcut {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Shortcut(nil), r.sent...)
}
