package axtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inplace/internal/ax"
)

func TestBridgeEditsDoc(t *testing.T) {
	d := &Doc{Text: "teh quick fox", Sel: ax.Range{Location: 0, Length: 3}, PID: 42}
	b := &Bridge{Focused: d}

	el, err := b.FocusedElement()
	require.NoError(t, err)

	sel, ok := b.SelectedText(el)
	require.True(t, ok)
	assert.Equal(t, "teh", sel)

	require.True(t, b.SetSelectedText(el, "the"))
	assert.Equal(t, "the quick fox", d.Text)
	assert.Equal(t, ax.Range{Location: 3}, d.Sel)

	require.True(t, b.Activate(42))
	assert.Equal(t, []int{42}, b.Activated())
	assert.Equal(t, []string{"FocusedElement", "SelectedText", "SetSelectedText", "Activate"}, b.Calls())
}

func TestBridgeDenied(t *testing.T) {
	b := &Bridge{Denied: true, Focused: &Doc{Text: "x"}}
	assert.False(t, b.Trusted())
	_, err := b.FocusedElement()
	assert.ErrorIs(t, err, ax.ErrPermissionDenied)
}

func TestIgnoreWrites(t *testing.T) {
	d := &Doc{Text: "abc", Sel: ax.Range{Location: 1, Length: 1}, IgnoreWrites: true}
	b := &Bridge{Focused: d}
	el, _ := b.FocusedElement()

	assert.True(t, b.SetValue(el, "zzz"))
	assert.True(t, b.SetSelectedText(el, "zzz"))
	assert.Equal(t, "abc", d.Text)
}

func TestDestroyedDoc(t *testing.T) {
	d := &Doc{Text: "abc", Destroyed: true}
	b := &Bridge{Focused: d}
	el, _ := b.FocusedElement()

	_, ok := b.Value(el)
	assert.False(t, ok)
	assert.False(t, b.SetValue(el, "x"))
}

func TestSetSelectedRangeBounds(t *testing.T) {
	d := &Doc{Text: "abc"}
	b := &Bridge{Focused: d}
	el, _ := b.FocusedElement()

	assert.False(t, b.SetSelectedRange(el, ax.Range{Location: 2, Length: 5}))
	assert.True(t, b.SetSelectedRange(el, ax.Range{Location: 1, Length: 2}))
	assert.Equal(t, "bc", d.Selected())
}
