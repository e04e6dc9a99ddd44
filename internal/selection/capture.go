package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inplace/internal/ax"
	"inplace/internal/clipboard"
	"inplace/internal/keys"
)

// Capture reads the selection of the focused element.
func (m *Monitor) Capture(ctx context.Context) (TextSelection, error) {
	if !m.bridge.Trusted() {
		return TextSelection{}, ErrAccessibilityDenied
	}

	el, err := m.focused()
	if err != nil {
		return TextSelection{}, err
	}

	text, r, ok, err := m.readDirect(el)
	if err != nil {
		return TextSelection{}, err
	}
	via := "attributes"
	if !ok {
		text, r, ok, err = m.readViaClipboard(ctx, el)
		if err != nil {
			return TextSelection{}, err
		}
		via = "clipboard"
	}
	if !ok {
		return TextSelection{}, ErrUnsupportedElement
	}
	if strings.TrimSpace(text) == "" {
		return TextSelection{}, ErrEmptySelection
	}

	sel := TextSelection{
		Text:    text,
		Frame:   m.anchor(el, r),
		Element: el,
		Range:   r,
	}
	m.logger.Debug("selection captured",
		"via", via,
		"length", ax.Len16(text),
		rangeAttr(r),
		"anchored", sel.Frame != nil,
	)
	return sel, nil
}

func (m *Monitor) focused() (ax.Element, error) {
	el, err := m.bridge.FocusedElement()
	if err != nil {
		if errors.Is(err, ax.ErrPermissionDenied) {
			return ax.Element{}, ErrAccessibilityDenied
		}
		return ax.Element{}, ErrNoFocusedElement
	}
	if el.IsZero() {
		return ax.Element{}, ErrNoFocusedElement
	}
	return el, nil
}

// readDirect reads the selection through the accessibility attributes. When
// the selected-text attribute is missing it slices the full value by the
// selected range; a collapsed range there is a definite empty selection.
func (m *Monitor) readDirect(el ax.Element) (string, *ax.Range, bool, error) {
	text, hasText := m.bridge.SelectedText(el)
	r, hasRange := m.bridge.SelectedRange(el)

	var rp *ax.Range
	if hasRange {
		rp = &r
	}
	if hasText {
		return text, rp, true, nil
	}
	if !hasRange {
		return "", nil, false, nil
	}

	value, ok := m.bridge.Value(el)
	if !ok {
		return "", nil, false, nil
	}
	sliced, ok := ax.Slice(value, r)
	if !ok {
		return "", nil, false, nil
	}
	if r.IsEmpty() {
		return "", nil, false, ErrEmptySelection
	}
	return sliced, rp, true, nil
}

// readViaClipboard copies the selection with a synthesized shortcut. The
// pasteboard is restored on every path, including cancellation.
func (m *Monitor) readViaClipboard(ctx context.Context, el ax.Element) (string, *ax.Range, bool, error) {
	var copied string
	var found bool
	err := clipboard.Preserve(m.pb, func() error {
		if err := m.pb.Restore(clipboard.Snapshot{}); err != nil {
			return err
		}
		if err := m.keys.Send(keys.Copy); err != nil {
			return err
		}
		if err := m.sleep(ctx, m.timing.CopySettle); err != nil {
			return err
		}
		copied, found = m.pb.ReadString()
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", nil, false, ctxErr
		}
		m.logger.Warn("clipboard capture failed", "error", err)
		return "", nil, false, wrap(KindUnsupportedElement, fmt.Errorf("clipboard capture: %w", err))
	}
	if !found || copied == "" {
		return "", nil, false, nil
	}

	var rp *ax.Range
	if r, ok := m.bridge.SelectedRange(el); ok {
		rp = &r
	}
	return copied, rp, true, nil
}

// anchor prefers the bounds of the selected range over the element frame.
func (m *Monitor) anchor(el ax.Element, r *ax.Range) *ax.Rect {
	if r != nil && !r.IsEmpty() {
		if rect, ok := m.bridge.BoundsForRange(el, *r); ok {
			return &rect
		}
	}
	if rect, ok := m.bridge.Frame(el); ok {
		return &rect
	}
	return nil
}
