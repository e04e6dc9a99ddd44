package ui

import "inplace/internal/ax"

// Gaps between the bubble, the selection and the screen edges, in points.
const (
	anchorGap = 10
	flipGap   = 12
	edgeGap   = 8
)

// Screen is one display in bottom-left screen coordinates. Visible excludes
// the menu bar and the dock.
type Screen struct {
	Frame   ax.Rect
	Visible ax.Rect
}

// Layout is the display arrangement at presentation time. Screens[0] is the
// primary display, whose top edge is the origin of accessibility
// coordinates.
type Layout struct {
	Screens []Screen
	Pointer ax.Point
}

// ToScreen converts a top-left accessibility rectangle to bottom-left screen
// coordinates.
func (l Layout) ToScreen(r ax.Rect) ax.Rect {
	if len(l.Screens) == 0 {
		return r
	}
	primary := l.Screens[0].Frame
	return ax.Rect{
		Origin: ax.Point{X: r.Origin.X, Y: primary.MaxY() - r.MaxY()},
		Size:   r.Size,
	}
}

// screenAt returns the screen containing p, else the primary screen.
func (l Layout) screenAt(p ax.Point) (Screen, bool) {
	for _, s := range l.Screens {
		if s.Frame.Contains(p) {
			return s, true
		}
	}
	if len(l.Screens) > 0 {
		return l.Screens[0], true
	}
	return Screen{}, false
}

// Place returns the bottom-left origin of a window of the given size. The
// window is centered above the anchor, or above the pointer when anchor is
// nil, and kept inside the visible frame of the screen it lands on.
func (l Layout) Place(anchor *ax.Rect, size ax.Size) ax.Point {
	target := l.Pointer
	if anchor != nil {
		a := l.ToScreen(*anchor)
		target = ax.Point{X: a.MidX(), Y: a.MaxY()}
	}
	origin := ax.Point{X: target.X - size.Width/2, Y: target.Y + anchorGap}

	screen, ok := l.screenAt(target)
	if !ok {
		return origin
	}
	return clamp(origin, size, target, screen.Visible)
}

func clamp(origin ax.Point, size ax.Size, target ax.Point, visible ax.Rect) ax.Point {
	if origin.X+size.Width > visible.MaxX() {
		origin.X = visible.MaxX() - size.Width - edgeGap
	}
	if origin.X < visible.Origin.X {
		origin.X = visible.Origin.X + edgeGap
	}
	if origin.Y+size.Height > visible.MaxY() {
		origin.Y = target.Y - size.Height - flipGap
	}
	if origin.Y < visible.Origin.Y {
		origin.Y = visible.Origin.Y + edgeGap
	}
	return origin
}
