package ui

import (
	"image"
	"sync"

	"github.com/google/uuid"

	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"inplace/internal/app"
)

// view holds what the bubble shows and the widgets that edit it. Fields
// below mu are shared between the presenting goroutine and the window
// goroutine.
type view struct {
	theme *Theme

	editor  widget.Editor
	accept  widget.Clickable
	dismiss widget.Clickable
	list    widget.List

	mu         sync.Mutex
	suggestion app.Suggestion
	shownID    uuid.UUID
	processing bool
	onAction   func(app.Action)
}

func newView(t *Theme) *view {
	v := &view{theme: t}
	v.list.Axis = layout.Vertical
	return v
}

// set replaces the suggestion. The editor is reset only when the suggestion
// identity changes, so edits survive a redraw of the same suggestion.
func (v *view) set(s app.Suggestion, processing bool, onAction func(app.Action)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.suggestion = s
	v.processing = processing
	v.onAction = onAction
}

func (v *view) snapshot() (app.Suggestion, bool, func(app.Action)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.suggestion, v.processing, v.onAction
}

// sync loads a new suggestion into the editor. It runs on the window
// goroutine.
func (v *view) sync(s app.Suggestion) {
	if s.ID == v.shownID {
		return
	}
	v.shownID = s.ID
	v.editor.SetText(s.RewrittenText)
}

// decide returns the action the user asked for, if any. Accepting is not
// possible while the provider is working.
func (v *view) decide(acceptClicked, dismissClicked, escape bool) (app.Action, bool) {
	_, processing, _ := v.snapshot()
	switch {
	case dismissClicked || escape:
		return app.Dismiss(), true
	case acceptClicked && !processing:
		return app.Accept(v.editor.Text()), true
	default:
		return app.Action{}, false
	}
}

func (v *view) fire(a app.Action) {
	_, _, onAction := v.snapshot()
	if onAction != nil {
		onAction(a)
	}
}

// Layout draws the bubble and reports the action taken during this frame.
func (v *view) Layout(gtx layout.Context) (layout.Dimensions, app.Action, bool) {
	s, processing, _ := v.snapshot()
	v.sync(s)

	escape := false
	for {
		ev, ok := gtx.Event(key.Filter{Name: key.NameEscape})
		if !ok {
			break
		}
		if e, ok := ev.(key.Event); ok && e.State == key.Press {
			escape = true
		}
	}
	action, acted := v.decide(v.accept.Clicked(gtx), v.dismiss.Clicked(gtx), escape)

	th := v.theme
	paint.Fill(gtx.Ops, th.Palette.Background)
	size := gtx.Constraints.Max
	border := clip.UniformRRect(image.Rect(0, 0, size.X, size.Y), gtx.Dp(th.Metrics.CornerRadius))
	paint.FillShape(gtx.Ops, th.Palette.Border, clip.Stroke{Path: border.Path(gtx.Ops), Width: 1}.Op())

	dims := layout.UniformInset(th.Metrics.Padding).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return v.layoutHeader(gtx, s, processing)
			}),
			layout.Rigid(layout.Spacer{Height: th.Metrics.Spacing}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return v.layoutOriginal(gtx, s)
			}),
			layout.Rigid(layout.Spacer{Height: th.Metrics.Spacing}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return v.layoutRewritten(gtx, processing)
			}),
			layout.Rigid(layout.Spacer{Height: th.Metrics.Spacing}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return v.layoutButtons(gtx, processing)
			}),
		)
	})
	return dims, action, acted
}

func (v *view) layoutHeader(gtx layout.Context, s app.Suggestion, processing bool) layout.Dimensions {
	th := v.theme
	title := "AI Suggestion"
	if processing {
		title = "Working…"
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			l := material.Label(th.Theme, th.Metrics.FontTitle, title)
			l.Color = th.Palette.Text
			return l.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: th.Metrics.Spacing}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if !processing {
				return layout.Dimensions{}
			}
			gtx.Constraints.Max = image.Pt(gtx.Dp(14), gtx.Dp(14))
			return material.Loader(th.Theme).Layout(gtx)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.E.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				l := material.Label(th.Theme, th.Metrics.FontCaption, s.PromptTitle)
				l.Color = th.Palette.TextMuted
				l.MaxLines = 1
				return l.Layout(gtx)
			})
		}),
	)
}

func (v *view) layoutOriginal(gtx layout.Context, s app.Suggestion) layout.Dimensions {
	th := v.theme
	return v.panel(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				l := material.Label(th.Theme, th.Metrics.FontCaption, "Original")
				l.Color = th.Palette.TextMuted
				return l.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				l := material.Label(th.Theme, th.Metrics.FontBody, s.OriginalText)
				l.Color = th.Palette.Text
				l.MaxLines = 3
				return l.Layout(gtx)
			}),
		)
	})
}

func (v *view) layoutRewritten(gtx layout.Context, processing bool) layout.Dimensions {
	th := v.theme
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			l := material.Label(th.Theme, th.Metrics.FontCaption, "Rewritten")
			l.Color = th.Palette.TextMuted
			return l.Layout(gtx)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			v.editor.ReadOnly = processing
			return material.List(th.Theme, &v.list).Layout(gtx, 1, func(gtx layout.Context, _ int) layout.Dimensions {
				ed := material.Editor(th.Theme, &v.editor, "")
				ed.Color = th.Palette.Text
				ed.TextSize = th.Metrics.FontBody
				return ed.Layout(gtx)
			})
		}),
	)
}

func (v *view) layoutButtons(gtx layout.Context, processing bool) layout.Dimensions {
	th := v.theme
	return layout.Flex{Spacing: layout.SpaceStart}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			b := material.Button(th.Theme, &v.dismiss, "Dismiss")
			b.Background = th.Palette.Surface
			b.Color = th.Palette.Text
			b.TextSize = th.Metrics.FontBody
			return b.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: th.Metrics.Spacing}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			b := material.Button(th.Theme, &v.accept, "Replace")
			b.TextSize = th.Metrics.FontBody
			if processing {
				b.Background = th.Palette.Border
				b.Color = th.Palette.TextMuted
			}
			return b.Layout(gtx)
		}),
	)
}

func (v *view) panel(gtx layout.Context, w layout.Widget) layout.Dimensions {
	th := v.theme
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			rr := gtx.Dp(unit.Dp(6))
			shape := clip.UniformRRect(image.Rectangle{Max: gtx.Constraints.Min}, rr).Op(gtx.Ops)
			paint.FillShape(gtx.Ops, th.Palette.Surface, shape)
			return layout.Dimensions{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min.X = gtx.Constraints.Max.X
			return layout.UniformInset(th.Metrics.Spacing).Layout(gtx, w)
		}),
	)
}
