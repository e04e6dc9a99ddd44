// Package clipboard snapshots and restores the system pasteboard so that
// synthesized copy and paste keystrokes leave no trace behind.
package clipboard

import (
	"bytes"
	"errors"
	"sync"
)

// TypeString is the pasteboard type for plain UTF-8 text.
const TypeString = "public.utf8-plain-text"

// ErrUnavailable is returned when the system pasteboard cannot be reached.
var ErrUnavailable = errors.New("clipboard: pasteboard unavailable")

// Entry is one representation of a pasteboard item.
type Entry struct {
	Type string
	Data []byte
}

// Item is one pasteboard item with its representations in preference order.
type Item []Entry

// Snapshot is a byte-exact copy of every item on the pasteboard.
type Snapshot struct {
	Items []Item
}

// IsEmpty reports whether the pasteboard held nothing.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Equal reports whether two snapshots hold the same items, types and bytes.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.Items) != len(o.Items) {
		return false
	}
	for i := range s.Items {
		a, b := s.Items[i], o.Items[i]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j].Type != b[j].Type || !bytes.Equal(a[j].Data, b[j].Data) {
				return false
			}
		}
	}
	return true
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{Items: make([]Item, len(s.Items))}
	for i, item := range s.Items {
		c := make(Item, len(item))
		for j, e := range item {
			c[j] = Entry{Type: e.Type, Data: append([]byte(nil), e.Data...)}
		}
		out.Items[i] = c
	}
	return out
}

// Pasteboard is the system clipboard.
type Pasteboard interface {
	// Snapshot copies every item currently on the pasteboard.
	Snapshot() (Snapshot, error)

	// Restore clears the pasteboard and writes back the snapshot. Restoring
	// an empty snapshot leaves the pasteboard empty.
	Restore(s Snapshot) error

	// ReadString returns the plain-text content, if any.
	ReadString() (string, bool)

	// WriteString replaces the pasteboard content with text.
	WriteString(text string) error
}

// Stash holds a snapshot until it is written back.
type Stash struct {
	mu       sync.Mutex
	pb       Pasteboard
	snap     Snapshot
	restored bool
}

// Save snapshots pb.
func Save(pb Pasteboard) (*Stash, error) {
	snap, err := pb.Snapshot()
	if err != nil {
		return nil, err
	}
	return &Stash{pb: pb, snap: snap}, nil
}

// Restore writes the snapshot back. Only the first call has an effect.
func (s *Stash) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restored {
		return nil
	}
	s.restored = true
	return s.pb.Restore(s.snap)
}

// Snapshot returns the saved snapshot.
func (s *Stash) Snapshot() Snapshot {
	return s.snap
}

// Preserve runs fn and restores the pasteboard afterwards, whatever fn
// returns.
func Preserve(pb Pasteboard, fn func() error) error {
	stash, err := Save(pb)
	if err != nil {
		return err
	}
	ferr := fn()
	if rerr := stash.Restore(); rerr != nil && ferr == nil {
		return rerr
	}
	return ferr
}
