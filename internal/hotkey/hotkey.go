package hotkey

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Errors returned by Start.
var (
	ErrUnsupportedPlatform = errors.New("hotkey: not supported on this platform")
	ErrPermissionDenied    = errors.New("hotkey: accessibility permission required")
	ErrAlreadyRunning      = errors.New("hotkey: already running")
)

// pollInterval is how often the native hit counter is read.
const pollInterval = 20 * time.Millisecond

// Listener delivers one value on Triggers per press of its combo.
type Listener struct {
	combo    Combo
	logger   *slog.Logger
	triggers chan struct{}
}

// New creates a listener for combo. It does nothing until Run.
func New(combo Combo, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		combo:    combo,
		logger:   logger.With("component", "hotkey"),
		triggers: make(chan struct{}, 1),
	}
}

// Combo returns the registered combo.
func (l *Listener) Combo() Combo {
	return l.combo
}

// Triggers returns the channel presses are delivered on. Presses arriving
// while a previous one is undelivered are coalesced.
func (l *Listener) Triggers() <-chan struct{} {
	return l.triggers
}

// Run installs the native hook, forwards presses until ctx is done and then
// removes the hook.
func (l *Listener) Run(ctx context.Context) error {
	h, err := start(l.combo)
	if err != nil {
		return err
	}
	defer h.stop()
	l.logger.Info("hotkey registered", "combo", l.combo.String())

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n := h.hits()
			if n == last {
				continue
			}
			last = n
			select {
			case l.triggers <- struct{}{}:
			default:
			}
		}
	}
}

// hook is the native registration.
type hook interface {
	hits() uint64
	stop()
}
