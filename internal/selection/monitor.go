// Package selection captures the text selected in the focused element of
// another application and writes a replacement back into it.
//
// Capture tries the accessibility attributes first and falls back to a
// synthesized copy through the clipboard. Replacement escalates through
// three write strategies and only reports success once the element's content
// confirms the edit. Every method must run on the UI loop goroutine.
package selection

import (
	"context"
	"log/slog"
	"time"

	"inplace/internal/ax"
	"inplace/internal/clipboard"
	"inplace/internal/keys"
	"inplace/internal/logging"
)

// TextSelection is the result of one capture.
type TextSelection struct {
	Text    string
	Frame   *ax.Rect
	Element ax.Element
	Range   *ax.Range
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Timing holds the delays of the capture and replacement protocols.
type Timing struct {
	// CopySettle is how long the target gets to answer a synthesized copy.
	CopySettle time.Duration

	// ConfirmDelays are the waits before each confirmation poll.
	ConfirmDelays []time.Duration
}

// DefaultTiming returns the stock delays.
func DefaultTiming() Timing {
	return Timing{
		CopySettle:    150 * time.Millisecond,
		ConfirmDelays: []time.Duration{0, 80 * time.Millisecond, 120 * time.Millisecond},
	}
}

// Config configures a Monitor.
type Config struct {
	Timing Timing
	Sleep  Sleeper
	Logger *slog.Logger
}

// Monitor runs capture and replacement against one bridge.
type Monitor struct {
	bridge ax.Bridge
	pb     clipboard.Pasteboard
	keys   keys.Synthesizer
	timing Timing
	sleep  Sleeper
	logger *slog.Logger
}

// New creates a Monitor. Zero fields of cfg take their defaults.
func New(bridge ax.Bridge, pb clipboard.Pasteboard, k keys.Synthesizer, cfg Config) *Monitor {
	timing := cfg.Timing
	def := DefaultTiming()
	if timing.CopySettle <= 0 {
		timing.CopySettle = def.CopySettle
	}
	if len(timing.ConfirmDelays) == 0 {
		timing.ConfirmDelays = def.ConfirmDelays
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default().WithComponent("selection").Logger
	}
	return &Monitor{
		bridge: bridge,
		pb:     pb,
		keys:   k,
		timing: timing,
		sleep:  sleep,
		logger: logger,
	}
}

// SetTiming replaces the protocol delays.
func (m *Monitor) SetTiming(t Timing) {
	if t.CopySettle > 0 {
		m.timing.CopySettle = t.CopySettle
	}
	if len(t.ConfirmDelays) > 0 {
		m.timing.ConfirmDelays = append([]time.Duration(nil), t.ConfirmDelays...)
	}
}

// Trusted reports whether the accessibility permission is held.
func (m *Monitor) Trusted() bool {
	return m.bridge.Trusted()
}

// Arm brings the element's application to the front and restores the
// selection range on it. When no range can be restored and selectAll is set,
// it selects everything with a synthesized shortcut instead. It reports
// whether a selection is believed to be in place.
func (m *Monitor) Arm(el ax.Element, r *ax.Range, selectAll bool) bool {
	if el.IsZero() {
		return false
	}
	if pid, ok := m.bridge.PID(el); ok {
		m.bridge.Activate(pid)
	}
	if r != nil && m.bridge.SetSelectedRange(el, *r) {
		return true
	}
	if selectAll {
		if err := m.keys.Send(keys.SelectAll); err != nil {
			m.logger.Warn("select all failed", "error", err)
			return false
		}
		return true
	}
	return false
}

func rangeAttr(r *ax.Range) slog.Attr {
	if r == nil {
		return slog.String("range", "none")
	}
	return slog.String("range", r.String())
}
