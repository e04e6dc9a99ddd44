// Package app sequences one rewrite cycle: capture the selection, show a
// placeholder, call the provider, show the suggestion, then replace the
// selection or paste it through the clipboard.
package app

import (
	"github.com/google/uuid"

	"inplace/internal/ax"
)

// PlaceholderText is shown while the provider is working.
const PlaceholderText = "Working on your rewrite..."

// Suggestion is what the presentation layer shows. ID changes whenever the
// rewritten text does.
type Suggestion struct {
	ID            uuid.UUID
	OriginalText  string
	RewrittenText string
	Explanation   *string
	Instruction   string
	PromptTitle   string
}

func newSuggestion(original, rewritten, instruction, title string) Suggestion {
	return Suggestion{
		ID:            uuid.New(),
		OriginalText:  original,
		RewrittenText: rewritten,
		Instruction:   instruction,
		PromptTitle:   title,
	}
}

// ActionKind is the user's decision on a suggestion.
type ActionKind int

const (
	ActionAccept ActionKind = iota + 1
	ActionDismiss
)

func (k ActionKind) String() string {
	switch k {
	case ActionAccept:
		return "accept"
	case ActionDismiss:
		return "dismiss"
	default:
		return "unknown"
	}
}

// Action carries the decision. Text is the possibly edited replacement of
// an accept; empty means the suggestion as presented.
type Action struct {
	Kind ActionKind
	Text string
}

// Accept returns an accept action with text.
func Accept(text string) Action {
	return Action{Kind: ActionAccept, Text: text}
}

// Dismiss returns a dismiss action.
func Dismiss() Action {
	return Action{Kind: ActionDismiss}
}

// Presenter shows suggestions next to the selection. A nil anchor means the
// pointer location. onAction may be called from any goroutine.
type Presenter interface {
	Present(s Suggestion, anchor *ax.Rect, processing bool, onAction func(Action))
	Dismiss()
}
