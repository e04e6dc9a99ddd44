package selection

import (
	"context"
	"strings"
	"unicode/utf8"

	"inplace/internal/ax"
)

// ReplaceRequest describes one replacement. Element, Range and OriginalText
// come from the capture; a zero Element targets the currently focused one.
type ReplaceRequest struct {
	Text         string
	Element      ax.Element
	Range        *ax.Range
	OriginalText string
}

// Replace writes req.Text over the captured selection and confirms the edit.
// It fails with ErrUnsupportedElement when no strategy could be confirmed.
func (m *Monitor) Replace(ctx context.Context, req ReplaceRequest) error {
	if !m.bridge.Trusted() {
		return ErrAccessibilityDenied
	}

	el := req.Element
	if el.IsZero() {
		var err error
		if el, err = m.focused(); err != nil {
			return err
		}
	}

	before, hasValue := m.bridge.Value(el)
	r, err := sanitizeRange(before, hasValue, req.Range, req.OriginalText)
	if err != nil {
		return err
	}

	var expected *string
	if r != nil && hasValue {
		if v, ok := ax.Splice(before, *r, req.Text); ok {
			expected = &v
		}
	}

	m.Arm(el, r, false)

	c := confirmation{
		before:      before,
		hasBefore:   hasValue,
		expected:    expected,
		replacement: req.Text,
	}

	strategies := []struct {
		name  string
		apply func() bool
	}{
		{"selected text", func() bool {
			return m.bridge.SetSelectedText(el, req.Text)
		}},
		{"range splice", func() bool {
			return m.spliceRange(el, r, req.OriginalText, req.Text)
		}},
		{"expected value", func() bool {
			return expected != nil && m.bridge.SetValue(el, *expected)
		}},
	}

	for _, s := range strategies {
		if !s.apply() {
			m.logger.Debug("replace strategy rejected", "strategy", s.name)
			continue
		}
		ok, err := m.confirm(ctx, el, c)
		if err != nil {
			return err
		}
		if ok {
			m.logger.Debug("replace confirmed",
				"strategy", s.name,
				"length", ax.Len16(req.Text),
				rangeAttr(r),
			)
			return nil
		}
		m.logger.Debug("replace not confirmed", "strategy", s.name)
	}
	return ErrUnsupportedElement
}

// spliceRange rewrites the full value with the range replaced. It refuses
// when the range no longer covers the original text, so that an earlier
// strategy which landed late is not applied twice.
func (m *Monitor) spliceRange(el ax.Element, r *ax.Range, original, text string) bool {
	if r == nil {
		return false
	}
	current, ok := m.bridge.Value(el)
	if !ok {
		return false
	}
	covered, ok := ax.Slice(current, *r)
	if !ok {
		return false
	}
	if original != "" && covered != original {
		return false
	}
	updated, ok := ax.Splice(current, *r, text)
	if !ok {
		return false
	}
	return m.bridge.SetValue(el, updated)
}

type confirmation struct {
	before      string
	hasBefore   bool
	expected    *string
	replacement string
}

// confirm polls the element after a write. It accepts the expected full
// value, a selected text equal to the replacement, or, only when no expected
// value is known, any change of the full value.
func (m *Monitor) confirm(ctx context.Context, el ax.Element, c confirmation) (bool, error) {
	for _, d := range m.timing.ConfirmDelays {
		if d > 0 {
			if err := m.sleep(ctx, d); err != nil {
				return false, err
			}
		}
		value, hasValue := m.bridge.Value(el)
		if c.expected != nil && hasValue && value == *c.expected {
			return true, nil
		}
		if sel, ok := m.bridge.SelectedText(el); ok && sel == c.replacement {
			return true, nil
		}
		if c.expected == nil && c.hasBefore && hasValue && value != c.before {
			return true, nil
		}
	}
	return false, nil
}

// sanitizeRange checks a remembered range against the current value. A
// range that no longer covers original is replaced by the unique occurrence
// of original; zero or several occurrences leave no usable range.
func sanitizeRange(value string, hasValue bool, r *ax.Range, original string) (*ax.Range, error) {
	if r != nil && !r.Valid() {
		r = nil
	}

	if original == "" {
		if r == nil {
			return nil, nil
		}
		if r.IsEmpty() {
			return nil, ErrEmptySelection
		}
		if !hasValue {
			return r, nil
		}
		if _, ok := ax.Slice(value, *r); ok {
			return r, nil
		}
		return nil, nil
	}

	if !hasValue {
		return r, nil
	}
	if r != nil {
		if covered, ok := ax.Slice(value, *r); ok && covered == original {
			return r, nil
		}
	}
	if u, ok := UniqueRange(value, original); ok {
		return &u, nil
	}
	return nil, nil
}

// UniqueRange returns the UTF-16 range of needle in doc when it occurs
// exactly once. Overlapping occurrences count.
func UniqueRange(doc, needle string) (ax.Range, bool) {
	if needle == "" {
		return ax.Range{}, false
	}
	first := -1
	count := 0
	for start := 0; start <= len(doc); {
		i := strings.Index(doc[start:], needle)
		if i < 0 {
			break
		}
		pos := start + i
		if count == 0 {
			first = pos
		}
		count++
		if count > 1 {
			return ax.Range{}, false
		}
		_, size := utf8.DecodeRuneInString(doc[pos:])
		start = pos + size
	}
	if count != 1 {
		return ax.Range{}, false
	}
	return ax.Range{Location: ax.Len16(doc[:first]), Length: ax.Len16(needle)}, true
}
