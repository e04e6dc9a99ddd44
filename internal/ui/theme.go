package ui

import (
	"image/color"
	"runtime"

	"gioui.org/unit"
	"gioui.org/widget/material"
)

// Palette defines the bubble colors.
type Palette struct {
	Background color.NRGBA
	Surface    color.NRGBA
	Primary    color.NRGBA
	OnPrimary  color.NRGBA
	Text       color.NRGBA
	TextMuted  color.NRGBA
	Border     color.NRGBA
}

// Metrics defines sizes and spacing.
type Metrics struct {
	CornerRadius unit.Dp
	Spacing      unit.Dp
	Padding      unit.Dp
	Width        unit.Dp
	Height       unit.Dp
	FontTitle    unit.Sp
	FontBody     unit.Sp
	FontCaption  unit.Sp
}

// Theme wraps the material theme with the bubble styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Metrics Metrics
}

// NewTheme creates a theme for the current OS.
func NewTheme(mtheme *material.Theme) *Theme {
	t := &Theme{Theme: mtheme}

	if runtime.GOOS == "darwin" {
		setupMacOSTheme(t)
	} else {
		setupDefaultTheme(t)
	}

	t.Theme.Palette.Bg = t.Palette.Background
	t.Theme.Palette.Fg = t.Palette.Text
	t.Theme.Palette.ContrastBg = t.Palette.Primary
	t.Theme.Palette.ContrastFg = t.Palette.OnPrimary
	return t
}

func setupMacOSTheme(t *Theme) {
	// Dark window background of recent macOS releases.
	t.Palette = Palette{
		Background: color.NRGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF},
		Surface:    color.NRGBA{R: 0x32, G: 0x32, B: 0x32, A: 0xFF},
		Primary:    color.NRGBA{R: 0x0A, G: 0x84, B: 0xFF, A: 0xFF},
		OnPrimary:  color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Text:       color.NRGBA{R: 0xF5, G: 0xF5, B: 0xF7, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0x86, G: 0x86, B: 0x8B, A: 0xFF},
		Border:     color.NRGBA{R: 0x3A, G: 0x3A, B: 0x3C, A: 0xFF},
	}

	t.Metrics = Metrics{
		CornerRadius: unit.Dp(14),
		Spacing:      unit.Dp(8),
		Padding:      unit.Dp(16),
		Width:        unit.Dp(380),
		Height:       unit.Dp(240),
		FontTitle:    unit.Sp(15),
		FontBody:     unit.Sp(13),
		FontCaption:  unit.Sp(11),
	}
}

func setupDefaultTheme(t *Theme) {
	t.Palette = Palette{
		Background: color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF},
		Surface:    color.NRGBA{R: 0x2C, G: 0x2C, B: 0x2C, A: 0xFF},
		Primary:    color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF},
		OnPrimary:  color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Text:       color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0xA0, G: 0xA0, B: 0xA0, A: 0xFF},
		Border:     color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xFF},
	}

	t.Metrics = Metrics{
		CornerRadius: unit.Dp(6),
		Spacing:      unit.Dp(8),
		Padding:      unit.Dp(16),
		Width:        unit.Dp(400),
		Height:       unit.Dp(250),
		FontTitle:    unit.Sp(16),
		FontBody:     unit.Sp(14),
		FontCaption:  unit.Sp(12),
	}
}
