// Package ax reads and edits text held by UI elements of other applications
// through the platform accessibility API.
//
// Every accessor degrades to "unsupported" (ok == false) instead of failing:
// foreign elements can disappear or reflow at any moment, and a stale element
// is a normal outcome. The only hard failure is loss of the accessibility
// permission, which callers check once through Bridge.Trusted before issuing
// any other call.
package ax

import "errors"

var (
	// ErrPermissionDenied is returned when the process is not trusted to use
	// the accessibility API.
	ErrPermissionDenied = errors.New("ax: accessibility permission denied")

	// ErrNoFocusedElement is returned when no element claims system focus.
	ErrNoFocusedElement = errors.New("ax: no focused element")

	// ErrUnsupportedPlatform is returned by RequestTrust and friends on
	// platforms without an accessibility bridge.
	ErrUnsupportedPlatform = errors.New("ax: accessibility bridge not available on this platform")
)

// Element is an opaque reference to one node of another process's UI tree.
// It carries no ownership and no lifetime guarantee.
type Element struct {
	ref any
}

// NewElement wraps a platform reference.
func NewElement(ref any) Element {
	return Element{ref: ref}
}

// Ref returns the platform reference.
func (e Element) Ref() any {
	return e.ref
}

// IsZero reports whether e refers to nothing.
func (e Element) IsZero() bool {
	return e.ref == nil
}

// Point is a screen location in accessibility coordinates (origin top-left
// of the primary display).
type Point struct {
	X, Y float64
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// Rect is a screen rectangle.
type Rect struct {
	Origin Point
	Size   Size
}

// MidX returns the horizontal center.
func (r Rect) MidX() float64 { return r.Origin.X + r.Size.Width/2 }

// MidY returns the vertical center.
func (r Rect) MidY() float64 { return r.Origin.Y + r.Size.Height/2 }

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.Origin.X + r.Size.Width }

// MaxY returns the far vertical edge.
func (r Rect) MaxY() float64 { return r.Origin.Y + r.Size.Height }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Origin.X && p.X < r.MaxX() && p.Y >= r.Origin.Y && p.Y < r.MaxY()
}

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool {
	return r.Size.Width <= 0 || r.Size.Height <= 0
}

// ValueKind tags the shape of an attribute value returned by the platform.
type ValueKind int

const (
	// ValueNone means the attribute is absent or of an unexpected type.
	ValueNone ValueKind = iota
	// ValuePlainText is a plain string.
	ValuePlainText
	// ValueStyledText is an attributed string; only its characters are kept.
	ValueStyledText
)

// Value is a text attribute as returned by the platform.
type Value struct {
	Kind ValueKind
	Text string
}

// String collapses the variant to a plain string.
func (v Value) String() (string, bool) {
	switch v.Kind {
	case ValuePlainText, ValueStyledText:
		return v.Text, true
	default:
		return "", false
	}
}

// Bridge issues typed get/set calls against foreign UI elements.
type Bridge interface {
	// Trusted reports whether the process holds the accessibility permission.
	Trusted() bool

	// FocusedElement resolves the system-wide focused element.
	FocusedElement() (Element, error)

	// SelectedText returns the element's selected text attribute.
	SelectedText(el Element) (string, bool)

	// SelectedRange returns the element's selection in UTF-16 units.
	SelectedRange(el Element) (Range, bool)

	// Value returns the element's full text content.
	Value(el Element) (string, bool)

	// Frame returns the element's position and size.
	Frame(el Element) (Rect, bool)

	// BoundsForRange returns the on-screen bounds of a text range.
	BoundsForRange(el Element, r Range) (Rect, bool)

	// SetSelectedText replaces the current selection.
	SetSelectedText(el Element, text string) bool

	// SetSelectedRange moves the caret/selection.
	SetSelectedRange(el Element, r Range) bool

	// SetValue overwrites the element's full text content.
	SetValue(el Element, text string) bool

	// PID returns the process owning the element.
	PID(el Element) (int, bool)

	// Activate brings the process to the foreground.
	Activate(pid int) bool
}
