package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"inplace/internal/clipboard"
	"inplace/internal/config"
	"inplace/internal/history"
	"inplace/internal/keys"
	"inplace/internal/logging"
	"inplace/internal/mainthread"
	"inplace/internal/notify"
	"inplace/internal/rewrite"
	"inplace/internal/selection"
)

// Notification titles.
const (
	titleFailed         = "Rewrite failed"
	titleNotApplied     = "Rewrite not applied"
	titleMissingKey     = "API key required"
	titleAccessibility  = "Accessibility permission required"
	accessibilityPrompt = "Grant Accessibility access in System Settings ▸ Privacy & Security ▸ Accessibility."
	emptySelectionHint  = "Select the text you want to fix, then try again."
)

// Providers hands out the provider for a kind.
type Providers interface {
	For(kind rewrite.Kind) rewrite.Provider
}

// KeySource returns the stored API key, or "" when none is set.
type KeySource interface {
	APIKey() (string, error)
}

// History records cycle outcomes.
type History interface {
	Record(ctx context.Context, e history.Entry) error
	SetOutcome(ctx context.Context, id string, o history.Outcome, rewrittenLen int, errMsg string) error
}

// Deps are the collaborators of a Coordinator. History and OnBusy are
// optional.
type Deps struct {
	Loop       *mainthread.Loop
	Monitor    *selection.Monitor
	Pasteboard clipboard.Pasteboard
	Keys       keys.Synthesizer
	Providers  Providers
	Presenter  Presenter
	Notifier   notify.Notifier
	Secrets    KeySource
	History    History
	Logger     *logging.Logger

	// OnBusy is called on the loop goroutine when a cycle starts or ends.
	OnBusy func(busy bool)
}

// cycle is the state of the rewrite cycle in progress. It is only touched
// on the loop goroutine.
type cycle struct {
	id         string
	generation uint64
	selection  selection.TextSelection
	settings   *config.Config
	started    time.Time
	dismissed  bool
	recorded   bool
	logger     *logging.Logger
}

// Coordinator runs rewrite cycles. Trigger and every continuation run on
// the loop goroutine; only the provider call runs elsewhere.
type Coordinator struct {
	deps Deps

	mu       sync.RWMutex
	settings *config.Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	busy       atomic.Bool
	generation uint64
	current    *cycle
}

// New creates a Coordinator using cfg until Reload is called.
func New(cfg *config.Config, deps Deps) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = logging.Default().WithComponent("app")
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Log{Logger: deps.Logger.Logger}
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		deps:     deps,
		settings: cfg.Clone(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Reload replaces the settings. The next cycle uses them; a cycle in
// progress keeps its own copy.
func (c *Coordinator) Reload(cfg *config.Config) {
	clone := cfg.Clone()
	c.mu.Lock()
	c.settings = clone
	c.mu.Unlock()
	c.deps.Logger.Info("settings reloaded",
		"provider", clone.ProviderKind(),
		"model", clone.Provider.Model,
	)
}

// Settings returns a copy of the current settings.
func (c *Coordinator) Settings() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Clone()
}

// Busy reports whether a cycle is waiting for the provider.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}

// Run blocks until ctx is done, then cancels provider calls still in flight
// and waits for them.
func (c *Coordinator) Run(ctx context.Context) error {
	<-ctx.Done()
	c.Close()
	return ctx.Err()
}

// Close cancels provider calls in flight and waits for their goroutines.
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}

// RequestTrigger posts Trigger to the loop. It is safe from any goroutine.
func (c *Coordinator) RequestTrigger() error {
	return c.deps.Loop.Post(c.Trigger)
}

// Trigger starts a rewrite cycle. It must run on the loop goroutine and is
// a no-op while another cycle is waiting for the provider.
func (c *Coordinator) Trigger() {
	settings := c.Settings()
	kind := settings.ProviderKind()

	apiKey, err := c.apiKey()
	if err != nil {
		c.deps.Logger.Warn("read api key", "error", err)
	}
	if kind.RequiresAPIKey() && apiKey == "" {
		c.notify(titleMissingKey, rewrite.UserMessage(rewrite.ErrMissingAPIKey))
		return
	}

	if c.busy.Load() {
		c.deps.Logger.Debug("trigger ignored while busy")
		return
	}

	c.generation++
	cy := &cycle{
		id:         uuid.NewString(),
		generation: c.generation,
		settings:   settings,
		started:    time.Now(),
	}
	cy.logger = c.deps.Logger.WithCycle(cy.id)
	c.current = cy
	c.setBusy(true)
	c.deps.Presenter.Dismiss()

	c.deps.Monitor.SetTiming(selection.Timing{
		CopySettle:    settings.CopySettle(),
		ConfirmDelays: settings.ConfirmDelays(),
	})

	sel, err := c.deps.Monitor.Capture(c.ctx)
	if err != nil {
		c.setBusy(false)
		c.current = nil
		cy.logger.Info("capture failed", "error", err)
		c.record(cy, history.OutcomeFailed, 0, err)
		c.notifyError(err)
		return
	}
	cy.selection = sel
	cy.logger.Info("selection captured",
		"length", len(sel.Text),
		"anchored", sel.Frame != nil,
		"ranged", sel.Range != nil,
	)

	title := promptTitle(settings)
	instruction := settings.Provider.Instruction
	placeholder := newSuggestion(sel.Text, PlaceholderText, instruction, title)
	c.deps.Presenter.Present(placeholder, sel.Frame, true, c.onLoop(func(a Action) {
		if a.Kind == ActionDismiss {
			c.dismiss(cy)
		}
	}))

	temperature := settings.Provider.Temperature
	req := rewrite.Request{
		Text:        sel.Text,
		Instruction: instruction,
		Model:       settings.Provider.Model,
		APIKey:      apiKey,
		BaseURL:     settings.EffectiveBaseURL(),
		Temperature: &temperature,
	}
	provider := c.deps.Providers.For(kind)
	timeout := settings.RequestTimeout()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(logging.ContextWithCycle(c.ctx, cy.id), timeout)
		defer cancel()
		text, err := provider.Rewrite(ctx, req)
		if perr := c.deps.Loop.Post(func() { c.finish(cy, text, err) }); perr != nil {
			cy.logger.Debug("result dropped", "error", perr)
		}
	}()
}

// finish handles the provider result on the loop goroutine.
func (c *Coordinator) finish(cy *cycle, text string, err error) {
	if c.current == cy {
		c.setBusy(false)
	}
	if c.stale(cy) {
		cy.logger.Info("stale result discarded", "dismissed", cy.dismissed)
		if err == nil && !cy.recorded {
			c.record(cy, history.OutcomeDismissed, len(text), nil)
		}
		return
	}

	if err != nil {
		c.current = nil
		c.deps.Presenter.Dismiss()
		if c.ctx.Err() != nil {
			cy.logger.Debug("rewrite cancelled on shutdown")
			return
		}
		cy.logger.Warn("rewrite failed", "error", err, "duration", time.Since(cy.started))
		c.record(cy, history.OutcomeFailed, 0, err)
		c.notify(titleFailed, rewrite.UserMessage(err))
		return
	}

	cy.logger.Info("rewrite received", "length", len(text), "duration", time.Since(cy.started))
	c.record(cy, history.OutcomePresented, len(text), nil)

	s := newSuggestion(cy.selection.Text, text, cy.settings.Provider.Instruction, promptTitle(cy.settings))
	c.deps.Presenter.Present(s, cy.selection.Frame, false, c.onLoop(func(a Action) {
		c.act(cy, s, a)
	}))
}

// stale reports whether a result for cy must not be applied.
func (c *Coordinator) stale(cy *cycle) bool {
	return cy.dismissed || cy.generation != c.generation || c.current != cy
}

// onLoop wraps an action handler so that it runs on the loop goroutine.
func (c *Coordinator) onLoop(fn func(Action)) func(Action) {
	return func(a Action) {
		if err := c.deps.Loop.Post(func() { fn(a) }); err != nil {
			c.deps.Logger.Debug("action dropped", "action", a.Kind, "error", err)
		}
	}
}

func (c *Coordinator) dismiss(cy *cycle) {
	if cy.dismissed || c.current != cy {
		return
	}
	cy.dismissed = true
	c.current = nil
	c.setBusy(false)
	c.deps.Presenter.Dismiss()
	cy.logger.Info("suggestion dismissed")
	if cy.recorded {
		c.setOutcome(cy, history.OutcomeDismissed, 0, nil)
	}
}

func (c *Coordinator) act(cy *cycle, s Suggestion, a Action) {
	if c.stale(cy) {
		cy.logger.Debug("action on stale suggestion ignored", "action", a.Kind)
		return
	}
	switch a.Kind {
	case ActionDismiss:
		c.dismiss(cy)
	case ActionAccept:
		text := a.Text
		if strings.TrimSpace(text) == "" {
			text = s.RewrittenText
		}
		c.current = nil
		c.deps.Presenter.Dismiss()
		c.apply(cy, text)
	}
}

// apply writes text over the captured selection, falling back to a
// clipboard paste only when the element rejects every write strategy.
func (c *Coordinator) apply(cy *cycle, text string) {
	sel := cy.selection
	err := c.deps.Monitor.Replace(c.ctx, selection.ReplaceRequest{
		Text:         text,
		Element:      sel.Element,
		Range:        sel.Range,
		OriginalText: sel.Text,
	})
	if err == nil {
		cy.logger.Info("selection replaced", "length", len(text))
		c.setOutcome(cy, history.OutcomeApplied, len(text), nil)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	if !errors.Is(err, selection.ErrUnsupportedElement) {
		cy.logger.Warn("replace failed", "error", err)
		c.setOutcome(cy, history.OutcomeFailed, len(text), err)
		c.notifyError(err)
		return
	}

	cy.logger.Info("replace not confirmed, pasting instead", "error", err)
	if perr := c.pasteFallback(cy, text); perr != nil {
		cy.logger.Warn("paste fallback failed", "error", perr)
		c.setOutcome(cy, history.OutcomeFailed, len(text), perr)
		c.notify(titleNotApplied, "The rewritten text could not be pasted: "+perr.Error())
		return
	}
	c.setOutcome(cy, history.OutcomeFallback, len(text), nil)
}

// pasteFallback selects the original text, puts text on the clipboard,
// pastes it after the paste delay and restores the clipboard after the
// restore delay.
func (c *Coordinator) pasteFallback(cy *cycle, text string) error {
	sel := cy.selection
	c.deps.Monitor.Arm(sel.Element, sel.Range, sel.Range == nil)

	stash, err := clipboard.Save(c.deps.Pasteboard)
	if err != nil {
		cy.logger.Warn("clipboard snapshot failed", "error", err)
	}
	if err := c.deps.Pasteboard.WriteString(text); err != nil {
		if stash != nil {
			_ = stash.Restore()
		}
		return err
	}
	if got, ok := c.deps.Pasteboard.ReadString(); !ok || got != text {
		if err := c.deps.Pasteboard.WriteString(text); err != nil {
			if stash != nil {
				_ = stash.Restore()
			}
			return err
		}
	}

	c.deps.Loop.After(cy.settings.PasteDelay(), func() {
		if err := c.deps.Keys.Send(keys.Paste); err != nil {
			cy.logger.Warn("paste keystroke failed", "error", err)
		}
	})
	if stash != nil {
		c.deps.Loop.After(cy.settings.RestoreDelay(), func() {
			if err := stash.Restore(); err != nil {
				cy.logger.Warn("clipboard restore failed", "error", err)
			}
		})
	}
	return nil
}

func (c *Coordinator) apiKey() (string, error) {
	if c.deps.Secrets == nil {
		return "", nil
	}
	key, err := c.deps.Secrets.APIKey()
	return strings.TrimSpace(key), err
}

func (c *Coordinator) setBusy(busy bool) {
	if c.busy.Swap(busy) == busy {
		return
	}
	if c.deps.OnBusy != nil {
		c.deps.OnBusy(busy)
	}
}

func (c *Coordinator) notifyError(err error) {
	var selErr *selection.Error
	if errors.As(err, &selErr) {
		switch selErr.Kind {
		case selection.KindAccessibilityDenied:
			c.notify(titleAccessibility, accessibilityPrompt)
		case selection.KindEmptySelection:
			c.notify(titleFailed, emptySelectionHint)
		default:
			c.notify(titleFailed, selErr.Message())
		}
		return
	}
	c.notify(titleFailed, rewrite.UserMessage(err))
}

func (c *Coordinator) notify(title, body string) {
	if err := c.deps.Notifier.Notify(title, body); err != nil {
		c.deps.Logger.Warn("notification failed", "error", err)
	}
}

func (c *Coordinator) record(cy *cycle, o history.Outcome, rewrittenLen int, cause error) {
	if c.deps.History == nil {
		return
	}
	e := history.Entry{
		ID:           cy.id,
		CreatedAt:    cy.started,
		Outcome:      o,
		Provider:     string(cy.settings.ProviderKind()),
		Model:        cy.settings.Provider.Model,
		Instruction:  cy.settings.Provider.Instruction,
		OriginalLen:  len(cy.selection.Text),
		RewrittenLen: rewrittenLen,
		Duration:     time.Since(cy.started),
	}
	if cause != nil {
		e.Error = cause.Error()
	}
	if err := c.deps.History.Record(c.ctx, e); err != nil {
		cy.logger.Warn("record history", "error", err)
		return
	}
	cy.recorded = true
}

func (c *Coordinator) setOutcome(cy *cycle, o history.Outcome, rewrittenLen int, cause error) {
	if c.deps.History == nil || !cy.recorded {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := c.deps.History.SetOutcome(c.ctx, cy.id, o, rewrittenLen, msg); err != nil {
		cy.logger.Warn("update history", "error", err)
	}
}

func promptTitle(cfg *config.Config) string {
	kind := cfg.ProviderKind()
	model := strings.TrimSpace(cfg.Provider.Model)
	if model == "" {
		return kind.DisplayName()
	}
	return kind.DisplayName() + " · " + model
}
