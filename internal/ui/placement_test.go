package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inplace/internal/ax"
)

func rect(x, y, w, h float64) ax.Rect {
	return ax.Rect{Origin: ax.Point{X: x, Y: y}, Size: ax.Size{Width: w, Height: h}}
}

// A 1440x900 primary display with a 25pt menu bar and a second display to
// its right.
var twoScreens = Layout{
	Screens: []Screen{
		{Frame: rect(0, 0, 1440, 900), Visible: rect(0, 0, 1440, 875)},
		{Frame: rect(1440, 0, 1920, 1080), Visible: rect(1440, 0, 1920, 1055)},
	},
	Pointer: ax.Point{X: 700, Y: 400},
}

func TestToScreenFlipsY(t *testing.T) {
	got := twoScreens.ToScreen(rect(100, 200, 50, 20))
	assert.Equal(t, rect(100, 680, 50, 20), got)
}

func TestToScreenWithoutScreens(t *testing.T) {
	r := rect(1, 2, 3, 4)
	assert.Equal(t, r, Layout{}.ToScreen(r))
}

func TestPlaceAboveAnchor(t *testing.T) {
	anchor := rect(400, 300, 100, 20)
	got := twoScreens.Place(&anchor, ax.Size{Width: 360, Height: 180})
	// Anchor top in screen coordinates is 900-300 = 600.
	assert.Equal(t, ax.Point{X: 450 - 180, Y: 610}, got)
}

func TestPlaceUsesPointerWithoutAnchor(t *testing.T) {
	got := twoScreens.Place(nil, ax.Size{Width: 200, Height: 100})
	assert.Equal(t, ax.Point{X: 600, Y: 410}, got)
}

func TestPlaceClampsRightEdge(t *testing.T) {
	anchor := rect(1400, 300, 30, 20)
	got := twoScreens.Place(&anchor, ax.Size{Width: 360, Height: 180})
	assert.Equal(t, 1440-360-8.0, got.X)
}

func TestPlaceClampsLeftEdge(t *testing.T) {
	anchor := rect(5, 300, 10, 20)
	got := twoScreens.Place(&anchor, ax.Size{Width: 360, Height: 180})
	assert.Equal(t, 8.0, got.X)
}

func TestPlaceFlipsBelowNearTop(t *testing.T) {
	// Selection just under the menu bar: no room above it.
	anchor := rect(400, 40, 100, 20)
	got := twoScreens.Place(&anchor, ax.Size{Width: 360, Height: 180})
	top := 900.0 - 40
	assert.Equal(t, top-180-12, got.Y)
}

func TestPlaceOnSecondScreen(t *testing.T) {
	anchor := rect(3300, 300, 100, 20)
	got := twoScreens.Place(&anchor, ax.Size{Width: 360, Height: 180})
	assert.Equal(t, 1440+1920-360-8.0, got.X, "clamped to the second screen")
}

func TestPlaceWithoutScreens(t *testing.T) {
	l := Layout{Pointer: ax.Point{X: 10, Y: 10}}
	got := l.Place(nil, ax.Size{Width: 100, Height: 50})
	assert.Equal(t, ax.Point{X: -40, Y: 20}, got)
}
