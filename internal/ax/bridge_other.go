//go:build !darwin

package ax

type unavailableBridge struct{}

// New returns a bridge that is never trusted. Accessibility editing of
// foreign applications is only implemented on macOS.
func New() Bridge {
	return unavailableBridge{}
}

// RequestTrust always reports false on this platform.
func RequestTrust(prompt bool) bool {
	return false
}

// OpenAccessibilitySettings is not available on this platform.
func OpenAccessibilitySettings() error {
	return ErrUnsupportedPlatform
}

func (unavailableBridge) Trusted() bool { return false }

func (unavailableBridge) FocusedElement() (Element, error) {
	return Element{}, ErrPermissionDenied
}

func (unavailableBridge) SelectedText(Element) (string, bool) { return "", false }
func (unavailableBridge) SelectedRange(Element) (Range, bool) { return Range{}, false }
func (unavailableBridge) Value(Element) (string, bool) { return "", false }
func (unavailableBridge) Frame(Element) (Rect, bool) { return Rect{}, false }
func (unavailableBridge) BoundsForRange(Element, Range) (Rect, bool) { return Rect{}, false }
func (unavailableBridge) SetSelectedText(Element, string) bool { return false }
func (unavailableBridge) SetSelectedRange(Element, Range) bool { return false }
func (unavailableBridge) SetValue(Element, string) bool { return false }
func (unavailableBridge) PID(Element) (int, bool) { return 0, false }
func (unavailableBridge) Activate(int) bool { return false }
