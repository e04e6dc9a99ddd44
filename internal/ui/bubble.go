// Package ui shows rewrite suggestions in a small borderless window next to
// the selection.
package ui

import (
	"log/slog"
	"sync"

	gioapp "gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/op"
	"gioui.org/widget/material"

	"inplace/internal/app"
	"inplace/internal/ax"
	"inplace/internal/logging"
)

// Bubble is the Gio implementation of app.Presenter. One window is kept
// open while a suggestion is shown and closed on Dismiss.
type Bubble struct {
	theme  *Theme
	view   *view
	logger *slog.Logger

	mu     sync.Mutex
	win    *gioapp.Window
	native nativeWindow
	anchor *ax.Rect
}

var _ app.Presenter = (*Bubble)(nil)

// NewBubble creates a presenter. Windows are only opened once Main runs.
func NewBubble(logger *slog.Logger) *Bubble {
	if logger == nil {
		logger = logging.Default().WithComponent("ui").Logger
	}
	t := NewTheme(material.NewTheme())
	return &Bubble{
		theme:  t,
		view:   newView(t),
		logger: logger,
	}
}

// Main runs the platform event loop on the calling goroutine, which must
// be the process main goroutine. It does not return.
func Main() {
	gioapp.Main()
}

// Present shows s anchored at anchor, or at the pointer when anchor is nil.
func (b *Bubble) Present(s app.Suggestion, anchor *ax.Rect, processing bool, onAction func(app.Action)) {
	b.view.set(s, processing, onAction)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.anchor = anchor
	if b.win == nil {
		w := new(gioapp.Window)
		w.Option(
			gioapp.Title("InplaceAI"),
			gioapp.Decorated(false),
			gioapp.Size(b.theme.Metrics.Width, b.theme.Metrics.Height),
		)
		b.win = w
		go b.loop(w)
	} else {
		b.win.Invalidate()
	}
	b.placeLocked()
}

// Dismiss closes the window without reporting an action.
func (b *Bubble) Dismiss() {
	b.view.set(app.Suggestion{}, false, nil)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.win != nil {
		b.win.Perform(system.ActionClose)
		b.win = nil
		b.native = nil
	}
}

// placeLocked moves the native window next to the anchor. b.mu is held.
func (b *Bubble) placeLocked() {
	if b.native == nil {
		return
	}
	size := ax.Size{
		Width:  float64(b.theme.Metrics.Width),
		Height: float64(b.theme.Metrics.Height),
	}
	origin := currentLayout().Place(b.anchor, size)
	b.native.moveTo(origin)
	b.native.focus()
}

func (b *Bubble) attach(w *gioapp.Window, n nativeWindow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.win != w {
		return
	}
	b.native = n
	n.float()
	b.placeLocked()
}

func (b *Bubble) current(w *gioapp.Window) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.win == w
}

func (b *Bubble) loop(w *gioapp.Window) {
	var ops op.Ops
	focused := false
	for {
		switch e := w.Event().(type) {
		case gioapp.DestroyEvent:
			if e.Err != nil {
				b.logger.Warn("suggestion window closed", "error", e.Err)
			}
			b.mu.Lock()
			if b.win == w {
				b.win = nil
				b.native = nil
			}
			b.mu.Unlock()
			return
		case gioapp.ConfigEvent:
			// Clicking elsewhere takes focus away, which dismisses like the
			// Dismiss button.
			if focused && !e.Config.Focused && b.current(w) {
				b.view.fire(app.Dismiss())
			}
			focused = e.Config.Focused
		case gioapp.FrameEvent:
			gtx := gioapp.NewContext(&ops, e)
			_, action, acted := b.view.Layout(gtx)
			e.Frame(gtx.Ops)
			if acted && b.current(w) {
				b.view.fire(action)
			}
		default:
			if n, ok := viewHandle(e); ok {
				b.attach(w, n)
			}
		}
	}
}
