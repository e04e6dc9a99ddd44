// Package axtest provides an in-memory ax.Bridge for tests.
package axtest

import (
	"sync"

	"inplace/internal/ax"
)

// Doc is a simulated text field. The zero value supports every attribute.
type Doc struct {
	Text string
	Sel  ax.Range

	NoSelectedText  bool
	NoSelectedRange bool
	NoValue         bool

	ReadOnlySelectedText bool
	ReadOnlyValue        bool
	ReadOnlyRange        bool

	// IgnoreWrites makes every setter report success without changing
	// anything, like applications that accept but drop AX writes.
	IgnoreWrites bool

	FrameRect  ax.Rect
	BoundsRect ax.Rect
	PID        int

	// Destroyed makes every accessor fail.
	Destroyed bool
}

// Selected returns the currently selected text.
func (d *Doc) Selected() string {
	s, _ := ax.Slice(d.Text, d.Sel)
	return s
}

// Insert replaces the selection with text and leaves the caret after it,
// the way a paste does.
func (d *Doc) Insert(text string) bool {
	next, ok := ax.Splice(d.Text, d.Sel, text)
	if !ok {
		return false
	}
	d.Text = next
	d.Sel = ax.Range{Location: d.Sel.Location + ax.Len16(text)}
	return true
}

// SelectAll selects the whole text.
func (d *Doc) SelectAll() {
	d.Sel = ax.Range{Length: ax.Len16(d.Text)}
}

// Bridge is a fake ax.Bridge backed by Focused.
type Bridge struct {
	mu sync.Mutex

	Denied  bool
	Focused *Doc

	calls     []string
	activated []int
}

var _ ax.Bridge = (*Bridge)(nil)

// Calls returns the names of the bridge methods invoked so far.
func (b *Bridge) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Activated returns the pids passed to Activate.
func (b *Bridge) Activated() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.activated...)
}

// Reset clears the call log.
func (b *Bridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
	b.activated = nil
}

func (b *Bridge) record(name string) {
	b.mu.Lock()
	b.calls = append(b.calls, name)
	b.mu.Unlock()
}

func doc(el ax.Element) *Doc {
	d, ok := el.Ref().(*Doc)
	if !ok || d == nil || d.Destroyed {
		return nil
	}
	return d
}

func (b *Bridge) Trusted() bool {
	b.record("Trusted")
	return !b.Denied
}

func (b *Bridge) FocusedElement() (ax.Element, error) {
	b.record("FocusedElement")
	if b.Denied {
		return ax.Element{}, ax.ErrPermissionDenied
	}
	if b.Focused == nil {
		return ax.Element{}, ax.ErrNoFocusedElement
	}
	return ax.NewElement(b.Focused), nil
}

func (b *Bridge) SelectedText(el ax.Element) (string, bool) {
	b.record("SelectedText")
	d := doc(el)
	if d == nil || d.NoSelectedText {
		return "", false
	}
	return ax.Slice(d.Text, d.Sel)
}

func (b *Bridge) SelectedRange(el ax.Element) (ax.Range, bool) {
	b.record("SelectedRange")
	d := doc(el)
	if d == nil || d.NoSelectedRange {
		return ax.Range{}, false
	}
	return d.Sel, true
}

func (b *Bridge) Value(el ax.Element) (string, bool) {
	b.record("Value")
	d := doc(el)
	if d == nil || d.NoValue {
		return "", false
	}
	return d.Text, true
}

func (b *Bridge) Frame(el ax.Element) (ax.Rect, bool) {
	b.record("Frame")
	d := doc(el)
	if d == nil || d.FrameRect.IsEmpty() {
		return ax.Rect{}, false
	}
	return d.FrameRect, true
}

func (b *Bridge) BoundsForRange(el ax.Element, r ax.Range) (ax.Rect, bool) {
	b.record("BoundsForRange")
	d := doc(el)
	if d == nil || d.BoundsRect.IsEmpty() {
		return ax.Rect{}, false
	}
	if _, ok := ax.Slice(d.Text, r); !ok {
		return ax.Rect{}, false
	}
	return d.BoundsRect, true
}

func (b *Bridge) SetSelectedText(el ax.Element, text string) bool {
	b.record("SetSelectedText")
	d := doc(el)
	if d == nil || d.ReadOnlySelectedText {
		return false
	}
	if d.IgnoreWrites {
		return true
	}
	return d.Insert(text)
}

func (b *Bridge) SetSelectedRange(el ax.Element, r ax.Range) bool {
	b.record("SetSelectedRange")
	d := doc(el)
	if d == nil || d.ReadOnlyRange {
		return false
	}
	if _, ok := ax.Slice(d.Text, r); !ok {
		return false
	}
	if d.IgnoreWrites {
		return true
	}
	d.Sel = r
	return true
}

func (b *Bridge) SetValue(el ax.Element, text string) bool {
	b.record("SetValue")
	d := doc(el)
	if d == nil || d.ReadOnlyValue {
		return false
	}
	if d.IgnoreWrites {
		return true
	}
	d.Text = text
	d.Sel = ax.Range{Location: ax.Len16(text)}
	return true
}

func (b *Bridge) PID(el ax.Element) (int, bool) {
	b.record("PID")
	d := doc(el)
	if d == nil || d.PID <= 0 {
		return 0, false
	}
	return d.PID, true
}

func (b *Bridge) Activate(pid int) bool {
	b.record("Activate")
	b.mu.Lock()
	b.activated = append(b.activated, pid)
	b.mu.Unlock()
	return pid > 0
}
