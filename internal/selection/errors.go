package selection

import "fmt"

// Kind classifies capture and replacement failures.
type Kind int

const (
	KindAccessibilityDenied Kind = iota + 1
	KindNoFocusedElement
	KindEmptySelection
	KindUnsupportedElement
)

func (k Kind) String() string {
	switch k {
	case KindAccessibilityDenied:
		return "accessibility denied"
	case KindNoFocusedElement:
		return "no focused element"
	case KindEmptySelection:
		return "empty selection"
	case KindUnsupportedElement:
		return "unsupported element"
	default:
		return fmt.Sprintf("kind %d", int(k))
	}
}

// Error is a capture or replacement failure. Errors of the same Kind match
// each other under errors.Is.
type Error struct {
	Kind Kind
	Err  error
}

var (
	ErrAccessibilityDenied = &Error{Kind: KindAccessibilityDenied}
	ErrNoFocusedElement    = &Error{Kind: KindNoFocusedElement}
	ErrEmptySelection      = &Error{Kind: KindEmptySelection}
	ErrUnsupportedElement  = &Error{Kind: KindUnsupportedElement}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("selection: %s: %v", e.Kind, e.Err)
	}
	return "selection: " + e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Message returns the text shown to the user.
func (e *Error) Message() string {
	switch e.Kind {
	case KindAccessibilityDenied:
		return "InplaceAI requires Accessibility permission."
	case KindNoFocusedElement:
		return "No focused text field was detected."
	case KindEmptySelection:
		return "Select some text before asking for a rewrite."
	case KindUnsupportedElement:
		return "This field does not expose text to the accessibility API."
	default:
		return e.Error()
	}
}

func wrap(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}
