package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"inplace/internal/ax"
	"inplace/internal/bundle"
	"inplace/internal/config"
	"inplace/internal/history"
	"inplace/internal/logging"
)

func newRunCmd() *cobra.Command {
	var noBundle bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the menu-bar agent",
		Long: `Starts the agent in the foreground. On macOS a binary started outside an
application bundle first installs ~/Applications/InplaceAI.app and relaunches
from there, since Accessibility permission is granted per bundle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, runOptions{bundle: !noBundle})
		},
	}
	cmd.Flags().BoolVar(&noBundle, "no-bundle", false, "run the binary in place without installing the app bundle")
	return cmd
}

func newTrustCmd() *cobra.Command {
	var prompt bool
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Show or request Accessibility permission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolvedConfigPath())
			if err != nil {
				return err
			}
			trusted := requestAccessibility(cfg, prompt)
			if trusted {
				fmt.Fprintln(cmd.OutOrStdout(), "Accessibility permission: granted")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Accessibility permission: not granted")
			if !prompt {
				fmt.Fprintln(cmd.OutOrStdout(), "Run \"inplace trust --prompt\" to request it.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&prompt, "prompt", false, "show the system prompt and open System Settings")
	return cmd
}

// requestAccessibility checks trust, prompting and opening the settings
// pane when prompt is set and access is missing.
func requestAccessibility(cfg *config.Config, prompt bool) bool {
	trusted := ax.RequestTrust(prompt)
	if !trusted && prompt {
		if err := ax.OpenAccessibilitySettings(); err != nil {
			logging.Default().Warn("open accessibility settings", "error", err)
		}
	}
	if prompt {
		withAudit(cfg, func(ctx context.Context, a *logging.AuditLogger) error {
			return a.LogPermission(ctx, trusted, prompt)
		})
	}
	return trusted
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent rewrite cycles",
		Long: `Lists the outcome of recent rewrite cycles. Only lengths and settings are
recorded; the text itself is never stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolvedConfigPath())
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No history recorded.")
				return nil
			}
			store, err := history.Open(cfg.History.Path, 0)
			if err != nil {
				return err
			}
			defer store.Close()
			return printHistory(cmd.Context(), cmd, store, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of cycles to show")
	return cmd
}

func printHistory(ctx context.Context, cmd *cobra.Command, store *history.Store, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOUTCOME\tPROVIDER\tMODEL\tIN\tOUT\tDURATION\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			e.Outcome,
			e.Provider,
			e.Model,
			e.OriginalLen,
			e.RewrittenLen,
			e.Duration.Round(time.Millisecond),
			e.Error,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d cycles recorded", stats.Total)
	for _, o := range []history.Outcome{
		history.OutcomeApplied, history.OutcomeFallback, history.OutcomeDismissed, history.OutcomeFailed,
	} {
		if n := stats.ByOutcome[o]; n > 0 {
			fmt.Fprintf(out, ", %d %s", n, o)
		}
	}
	fmt.Fprintln(out)
	return nil
}

func newInstallCmd() *cobra.Command {
	var (
		dir  string
		icon string
		open bool
	)
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the InplaceAI application bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolvedConfigPath())
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate executable: %w", err)
			}
			in := &bundle.Installer{Dir: dir, Version: Version, Icon: icon}
			app, err := in.Install(exe)
			withAudit(cfg, func(ctx context.Context, a *logging.AuditLogger) error {
				return a.LogInstall(ctx, app, err)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", app)
			if open {
				return bundle.Open(app)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "parent directory (default ~/Applications)")
	cmd.Flags().StringVar(&icon, "icon", "", ".icns file to copy into the bundle")
	cmd.Flags().BoolVar(&open, "open", false, "launch the bundle after installing")
	return cmd
}
