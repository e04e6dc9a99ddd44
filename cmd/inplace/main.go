// inplace rewrites the selected text of any application in place.
//
//	inplace                 Start the menu-bar agent (same as "run")
//	inplace config get KEY  Show a setting
//	inplace config set KEY VALUE
//	inplace key set [KEY]   Store the provider API key
//	inplace trust           Show or request Accessibility permission
//	inplace history         List recent rewrite cycles
//	inplace install         Install the application bundle
//	inplace version         Print the version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inplace/internal/config"
	"inplace/internal/logging"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	configPath string
	verbose    bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "inplace",
		Short: "Rewrite selected text in place with a language model",
		Long: `inplace runs as a menu-bar agent. Select text in any application, press
the hotkey (Option+Shift+R by default) and review the rewrite before it
replaces the selection.

Run without arguments to start the agent.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, runOptions{bundle: true})
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default "+config.ConfigPath()+")")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newRunCmd(),
		newConfigCmd(),
		newKeyCmd(),
		newTrustCmd(),
		newHistoryCmd(),
		newInstallCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Default().Debug("command failed", "error", err)
		os.Exit(1)
	}
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.ConfigPath()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "inplace %s\n", Version)
		},
	}
}
