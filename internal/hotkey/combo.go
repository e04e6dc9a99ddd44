// Package hotkey parses shortcut combos and delivers global key presses.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// Modifier is a bit set of modifier keys.
type Modifier uint8

const (
	Command Modifier = 1 << iota
	Control
	Option
	Shift
)

// ErrInvalidCombo is returned for combos that cannot be registered.
var ErrInvalidCombo = errors.New("hotkey: invalid combo")

var modifierNames = map[string]Modifier{
	"cmd":     Command,
	"command": Command,
	"ctrl":    Control,
	"control": Control,
	"opt":     Option,
	"option":  Option,
	"alt":     Option,
	"shift":   Shift,
}

// keyCodes maps key names to macOS virtual key codes.
var keyCodes = map[string]uint16{
	"a": 0, "s": 1, "d": 2, "f": 3, "h": 4, "g": 5, "z": 6, "x": 7,
	"c": 8, "v": 9, "b": 11, "q": 12, "w": 13, "e": 14, "r": 15,
	"y": 16, "t": 17, "1": 18, "2": 19, "3": 20, "4": 21, "6": 22,
	"5": 23, "9": 25, "7": 26, "8": 28, "0": 29, "o": 31, "u": 32,
	"i": 34, "p": 35, "l": 37, "j": 38, "k": 40, "n": 45, "m": 46,
	"return": 36, "tab": 48, "space": 49, "escape": 53,
	"f1": 122, "f2": 120, "f3": 99, "f4": 118, "f5": 96, "f6": 97,
	"f7": 98, "f8": 100, "f9": 101, "f10": 109, "f11": 103, "f12": 111,
}

// Combo is a parsed shortcut.
type Combo struct {
	Mods    Modifier
	Key     string
	KeyCode uint16
}

// ParseCombo parses a "+" separated combo such as "option+shift+r".
// Names are case-insensitive; exactly one non-modifier key and at least one
// modifier are required.
func ParseCombo(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Combo{}, fmt.Errorf("%w: empty part in %q", ErrInvalidCombo, s)
		}
		if m, ok := modifierNames[p]; ok {
			c.Mods |= m
			continue
		}
		code, ok := keyCodes[p]
		if !ok {
			return Combo{}, fmt.Errorf("%w: unknown key %q", ErrInvalidCombo, p)
		}
		if c.Key != "" {
			return Combo{}, fmt.Errorf("%w: more than one key in %q", ErrInvalidCombo, s)
		}
		c.Key = p
		c.KeyCode = code
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("%w: no key in %q", ErrInvalidCombo, s)
	}
	if c.Mods == 0 {
		return Combo{}, fmt.Errorf("%w: %q needs a modifier", ErrInvalidCombo, s)
	}
	return c, nil
}

// String returns the canonical form, modifiers in a fixed order.
func (c Combo) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Modifier
		name string
	}{{Control, "control"}, {Option, "option"}, {Shift, "shift"}, {Command, "cmd"}} {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Symbol returns the menu rendering, e.g. "⌥⇧R".
func (c Combo) Symbol() string {
	var b strings.Builder
	if c.Mods&Control != 0 {
		b.WriteString("⌃")
	}
	if c.Mods&Option != 0 {
		b.WriteString("⌥")
	}
	if c.Mods&Shift != 0 {
		b.WriteString("⇧")
	}
	if c.Mods&Command != 0 {
		b.WriteString("⌘")
	}
	b.WriteString(strings.ToUpper(c.Key))
	return b.String()
}
