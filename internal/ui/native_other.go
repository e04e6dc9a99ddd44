//go:build !darwin

package ui

import "gioui.org/io/event"

func viewHandle(event.Event) (nativeWindow, bool) {
	return nil, false
}

func currentLayout() Layout {
	return Layout{}
}
