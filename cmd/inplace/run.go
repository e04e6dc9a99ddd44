package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"inplace/internal/app"
	"inplace/internal/ax"
	"inplace/internal/bundle"
	"inplace/internal/clipboard"
	"inplace/internal/config"
	"inplace/internal/history"
	"inplace/internal/hotkey"
	"inplace/internal/keys"
	"inplace/internal/logging"
	"inplace/internal/mainthread"
	"inplace/internal/menubar"
	"inplace/internal/notify"
	"inplace/internal/rewrite"
	"inplace/internal/security"
	"inplace/internal/selection"
	"inplace/internal/ui"
)

// loopBuffer bounds the tasks queued for the UI loop.
const loopBuffer = 64

type runOptions struct {
	// bundle relaunches from the installed app bundle when needed.
	bundle bool
}

// agent is the running process: every long-lived component plus the
// resources released on exit.
type agent struct {
	cfg      *config.Config
	loader   *config.Loader
	logger   *logging.Logger
	audit    *logging.AuditLogger
	crash    *logging.CrashHandler
	instance *security.InstanceLock
	history  *history.Store

	loop     *mainthread.Loop
	coord    *app.Coordinator
	listener *hotkey.Listener
	menu     *menubar.Menu
	notifier notify.Notifier
}

func runAgent(cmd *cobra.Command, opts runOptions) error {
	path := resolvedConfigPath()
	if _, _, err := config.LoadOrCreate(path); err != nil {
		return err
	}
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	logging.SetDefault(logger)

	if opts.bundle && runtime.GOOS == "darwin" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
		in := &bundle.Installer{Version: Version}
		relaunched, err := in.Ensure(exe, bundle.Open)
		if err != nil {
			// Keep running unbundled; permission prompts then name the binary.
			logger.Warn("install app bundle", "error", err)
		} else if relaunched {
			logger.Info("relaunched from app bundle")
			return logger.Close()
		}
	}

	a, err := newAgent(cfg, loader, logger)
	if err != nil {
		logger.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer stop()
		err := a.run(ctx, stop)
		code := 0
		if err != nil {
			fmt.Fprintln(os.Stderr, "inplace:", err)
			code = 1
		}
		a.close(err)
		os.Exit(code)
	}()

	// The platform event loop owns the main goroutine from here on.
	ui.Main()
	return nil
}

func newAgent(cfg *config.Config, loader *config.Loader, logger *logging.Logger) (*agent, error) {
	combo, err := hotkey.ParseCombo(cfg.Hotkey.Combo)
	if err != nil {
		return nil, fmt.Errorf("hotkey: %w", err)
	}

	a := &agent{cfg: cfg, loader: loader, logger: logger}

	a.crash = logging.NewCrashHandler(&logging.CrashHandlerConfig{
		CrashDir:  filepath.Join(filepath.Dir(auditPath(cfg)), "crashes"),
		Version:   Version,
		Component: "inplace",
		Logger:    logger,
	})
	logging.SetDefaultCrashHandler(a.crash)
	if err := a.crash.CleanupOldCrashReports(30 * 24 * time.Hour); err != nil {
		logger.Debug("cleanup crash reports", "error", err)
	}

	instance, err := security.AcquireInstance(filepath.Join(config.PlatformDataDir(), "inplace.pid"))
	if err != nil {
		return nil, err
	}
	a.instance = instance

	if audit, err := openAudit(cfg); err != nil {
		logger.Warn("open audit log", "error", err)
	} else {
		a.audit = audit
		_ = audit.LogStartup(context.Background(), Version)
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			logger.Warn("open history", "error", err)
		} else {
			a.history = store
		}
	}

	a.notifier = notify.New(logger.WithComponent("notify").Logger)
	a.loop = mainthread.New(loopBuffer, a.crash)
	a.listener = hotkey.New(combo, logger.Logger)
	a.menu = menubar.New(combo.Symbol(), logger.Logger)

	pb := clipboard.New()
	synth := keys.New()
	monitor := selection.New(ax.New(), pb, synth, selection.Config{
		Timing: selection.Timing{
			CopySettle:    cfg.CopySettle(),
			ConfirmDelays: cfg.ConfirmDelays(),
		},
		Logger: logger.WithComponent("selection").Logger,
	})

	deps := app.Deps{
		Loop:       a.loop,
		Monitor:    monitor,
		Pasteboard: pb,
		Keys:       synth,
		// Requests are bounded by the per-cycle timeout so reloads apply.
		Providers: rewrite.NewClients(0, logger.WithComponent("rewrite").Logger),
		Presenter: ui.NewBubble(logger.WithComponent("ui").Logger),
		Notifier:  a.notifier,
		Secrets:   secretStore(),
		Logger:    logger.WithComponent("app"),
		OnBusy:    a.menu.SetBusy,
	}
	if a.history != nil {
		deps.History = a.history
	}
	a.coord = app.New(cfg, deps)
	loader.OnChange(a.coord.Reload)
	return a, nil
}

// run blocks until ctx is done or a component fails. stop cancels ctx.
func (a *agent) run(ctx context.Context, stop context.CancelFunc) error {
	if !ax.RequestTrust(true) {
		a.logger.Warn("accessibility permission missing")
		a.auditPermission(false, true)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return quiet(a.loop.Run(gctx)) })
	g.Go(func() error { return quiet(a.coord.Run(gctx)) })

	g.Go(func() error {
		if err := a.loader.Run(gctx); err != nil {
			a.logger.Warn("config watcher stopped", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case err := <-a.loader.Errors():
				a.logger.Warn("config reload rejected", "error", err)
				a.notify("Settings not applied", err.Error())
			}
		}
	})

	g.Go(func() error {
		err := a.listener.Run(gctx)
		switch {
		case err == nil:
		case errors.Is(err, hotkey.ErrUnsupportedPlatform), errors.Is(err, hotkey.ErrPermissionDenied):
			a.logger.Warn("hotkey unavailable; use the menu", "error", err)
		default:
			return fmt.Errorf("hotkey: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-a.listener.Triggers():
				a.trigger()
			}
		}
	})

	g.Go(func() error {
		if err := a.menu.Run(gctx); err != nil {
			if errors.Is(err, menubar.ErrUnsupportedPlatform) {
				a.logger.Info("status item unavailable", "error", err)
				return nil
			}
			return fmt.Errorf("menubar: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case item := <-a.menu.Clicks():
				a.handleMenu(item, stop)
			}
		}
	})

	a.logger.Info("agent started",
		"version", Version,
		"hotkey", a.listener.Combo().String(),
		"provider", a.cfg.ProviderKind(),
		"config", a.loader.Path(),
	)
	return g.Wait()
}

func (a *agent) trigger() {
	if err := a.coord.RequestTrigger(); err != nil {
		a.logger.Debug("trigger dropped", "error", err)
	}
}

func (a *agent) handleMenu(item menubar.Item, stop context.CancelFunc) {
	a.logger.Debug("menu item selected", "item", item)
	switch item {
	case menubar.ItemRewrite:
		a.trigger()
	case menubar.ItemPreferences:
		if err := openFile(a.loader.Path()); err != nil {
			a.logger.Warn("open preferences", "error", err)
			a.notify("Preferences", "Edit "+a.loader.Path())
		}
	case menubar.ItemAccessibility:
		trusted := ax.RequestTrust(true)
		if !trusted {
			if err := ax.OpenAccessibilitySettings(); err != nil {
				a.logger.Warn("open accessibility settings", "error", err)
			}
		}
		a.auditPermission(trusted, true)
	case menubar.ItemQuit:
		stop()
	}
}

func (a *agent) notify(title, body string) {
	if err := a.notifier.Notify(title, body); err != nil {
		a.logger.Warn("notify", "error", err)
	}
}

func (a *agent) auditPermission(trusted, prompted bool) {
	if a.audit == nil {
		return
	}
	if err := a.audit.LogPermission(context.Background(), trusted, prompted); err != nil {
		a.logger.Debug("audit permission", "error", err)
	}
}

// close releases everything newAgent acquired. cause is recorded as the
// shutdown reason.
func (a *agent) close(cause error) {
	reason := "quit"
	if cause != nil {
		reason = cause.Error()
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("close history", "error", err)
		}
	}
	if a.audit != nil {
		_ = a.audit.LogShutdown(context.Background(), reason)
		_ = a.audit.Close()
	}
	if a.instance != nil {
		if err := a.instance.Release(); err != nil {
			a.logger.Warn("release instance lock", "error", err)
		}
	}
	a.logger.Info("agent stopped", "reason", reason)
	_ = a.logger.Close()
}

// quiet maps the cancellation that ends a clean shutdown to nil.
func quiet(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
