// Package menubar installs the agent's status item and forwards menu clicks.
package menubar

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrUnsupportedPlatform is returned by Run where there is no status bar.
var ErrUnsupportedPlatform = errors.New("menubar: not supported on this platform")

// Item identifies a menu entry. The values index the native click counters.
type Item int

const (
	ItemRewrite Item = iota
	ItemPreferences
	ItemAccessibility
	ItemQuit
	itemCount
)

func (i Item) String() string {
	switch i {
	case ItemRewrite:
		return "rewrite"
	case ItemPreferences:
		return "preferences"
	case ItemAccessibility:
		return "accessibility"
	case ItemQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Title returns the menu title of i. symbol is the hotkey shown next to the
// rewrite entry, e.g. "⌥⇧R".
func (i Item) Title(symbol string) string {
	switch i {
	case ItemRewrite:
		if symbol == "" {
			return "Rewrite Selection"
		}
		return "Rewrite Selection (" + symbol + ")"
	case ItemPreferences:
		return "Preferences…"
	case ItemAccessibility:
		return "Request Accessibility Access"
	case ItemQuit:
		return "Quit InplaceAI"
	default:
		return ""
	}
}

const pollInterval = 50 * time.Millisecond

// Menu is the status item.
type Menu struct {
	symbol string
	logger *slog.Logger
	clicks chan Item
	busy   chan bool
}

// New creates a menu whose rewrite entry shows the hotkey symbol.
func New(symbol string, logger *slog.Logger) *Menu {
	if logger == nil {
		logger = slog.Default()
	}
	return &Menu{
		symbol: symbol,
		logger: logger.With("component", "menubar"),
		clicks: make(chan Item, int(itemCount)),
		busy:   make(chan bool, 1),
	}
}

// Clicks delivers one value per menu selection.
func (m *Menu) Clicks() <-chan Item {
	return m.clicks
}

// SetBusy dims the status icon and disables the rewrite entry while busy.
// Only the latest value is kept when calls outpace the menu.
func (m *Menu) SetBusy(busy bool) {
	for {
		select {
		case m.busy <- busy:
			return
		default:
		}
		select {
		case <-m.busy:
		default:
		}
	}
}

// Run installs the status item, forwards clicks until ctx is done and then
// removes it.
func (m *Menu) Run(ctx context.Context) error {
	b, err := install(m.symbol)
	if err != nil {
		return err
	}
	m.logger.Info("status item installed")
	return m.run(ctx, b)
}

func (m *Menu) run(ctx context.Context, b bar) error {
	defer b.remove()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case busy := <-m.busy:
			b.setBusy(busy)
		case <-ticker.C:
			for i := Item(0); i < itemCount; i++ {
				for n := b.take(i); n > 0; n-- {
					m.deliver(ctx, i)
				}
			}
		}
	}
}

func (m *Menu) deliver(ctx context.Context, i Item) {
	select {
	case m.clicks <- i:
	case <-ctx.Done():
	}
}

// bar is the native status item.
type bar interface {
	take(i Item) int
	setBusy(busy bool)
	remove()
}
