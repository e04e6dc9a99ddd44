package ui

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/widget/material"

	"inplace/internal/app"
)

func newTestView() *view {
	return newView(NewTheme(material.NewTheme()))
}

func suggestion(text string) app.Suggestion {
	return app.Suggestion{ID: uuid.New(), OriginalText: "teh quick", RewrittenText: text}
}

func TestSyncResetsEditorOnNewSuggestion(t *testing.T) {
	v := newTestView()
	s := suggestion(app.PlaceholderText)
	v.sync(s)
	assert.Equal(t, app.PlaceholderText, v.editor.Text())

	next := suggestion("the quick")
	v.sync(next)
	assert.Equal(t, "the quick", v.editor.Text())
}

func TestSyncKeepsEditsForSameSuggestion(t *testing.T) {
	v := newTestView()
	s := suggestion("the quick")
	v.sync(s)
	v.editor.SetText("the very quick")

	v.sync(s)
	assert.Equal(t, "the very quick", v.editor.Text())
}

func TestDecide(t *testing.T) {
	v := newTestView()
	s := suggestion("the quick")
	v.set(s, false, nil)
	v.sync(s)
	v.editor.SetText("edited")

	a, ok := v.decide(true, false, false)
	require.True(t, ok)
	assert.Equal(t, app.Accept("edited"), a)

	a, ok = v.decide(false, false, true)
	require.True(t, ok)
	assert.Equal(t, app.ActionDismiss, a.Kind)

	_, ok = v.decide(false, false, false)
	assert.False(t, ok)
}

func TestDecideIgnoresAcceptWhileProcessing(t *testing.T) {
	v := newTestView()
	v.set(suggestion(app.PlaceholderText), true, nil)

	_, ok := v.decide(true, false, false)
	assert.False(t, ok)

	a, ok := v.decide(false, true, false)
	require.True(t, ok)
	assert.Equal(t, app.ActionDismiss, a.Kind)
}

func TestFireCallsHandler(t *testing.T) {
	v := newTestView()
	var got []app.Action
	v.set(suggestion("x"), false, func(a app.Action) { got = append(got, a) })
	v.fire(app.Dismiss())
	assert.Equal(t, []app.Action{app.Dismiss()}, got)

	v.set(app.Suggestion{}, false, nil)
	v.fire(app.Dismiss())
	assert.Len(t, got, 1)
}
