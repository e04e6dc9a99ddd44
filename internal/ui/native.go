package ui

import "inplace/internal/ax"

// nativeWindow is the platform window behind a Gio window.
type nativeWindow interface {
	// moveTo sets the bottom-left origin of the window in screen points.
	moveTo(origin ax.Point)
	// float keeps the window above other applications on every space.
	float()
	// focus brings the window to the front and gives it keyboard focus.
	focus()
}
