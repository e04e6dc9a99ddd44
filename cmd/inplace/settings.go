package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"inplace/internal/config"
	"inplace/internal/logging"
	"inplace/internal/secret"
)

// apiKeySetting is the flat key that routes to the secret store instead of
// the configuration file.
const apiKeySetting = "api_key"

func secretStore() *secret.Store {
	return secret.NewStore(filepath.Join(config.PlatformDataDir(), "secrets"))
}

func isAPIKeySetting(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	return k == apiKeySetting || k == "provider.api_key"
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
		Long: `Settings use dotted keys such as provider.model or timing.paste_delay_ms.
The short names provider, base_url, model, instruction and api_key are
accepted as well. api_key is kept sealed outside the configuration file.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), resolvedConfigPath())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolvedConfigPath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				v, err := getSetting(cfg, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, v)
				return nil
			}
			for _, k := range config.Keys() {
				v, _ := cfg.Get(k)
				fmt.Fprintf(out, "%s = %s\n", k, v)
			}
			v, _ := getSetting(cfg, apiKeySetting)
			fmt.Fprintf(out, "%s = %s\n", apiKeySetting, v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setSetting(cmd.OutOrStdout(), args[0], args[1])
		},
	})
	return cmd
}

// getSetting never prints the API key, only whether one is stored.
func getSetting(cfg *config.Config, key string) (string, error) {
	if isAPIKeySetting(key) {
		k, err := secretStore().APIKey()
		if err != nil {
			return "", err
		}
		if k == "" {
			return "(not set)", nil
		}
		return "(set)", nil
	}
	return cfg.Get(key)
}

func setSetting(out io.Writer, key, value string) error {
	if isAPIKeySetting(key) {
		return storeKey(out, value)
	}

	path := resolvedConfigPath()
	var old string
	cfg, err := config.Update(path, func(c *config.Config) error {
		old, _ = c.Get(key)
		return c.Set(key, value)
	})
	if err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			return fmt.Errorf("invalid setting: %w", err)
		}
		return err
	}

	canonical := config.CanonicalKey(key)
	now, _ := cfg.Get(canonical)
	withAudit(cfg, func(ctx context.Context, a *logging.AuditLogger) error {
		return a.LogConfigChange(ctx, canonical, old, now)
	})
	fmt.Fprintf(out, "%s = %s\n", canonical, now)
	return nil
}

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the provider API key",
		Long: `The key is sealed with a random master key under the data directory.
` + secret.EnvAPIKey + ` overrides the stored key when set.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key, read from stdin when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read key: %w", err)
				}
				key = line
			}
			if strings.TrimSpace(key) == "" {
				return errors.New("empty key; use \"inplace key clear\" to remove the stored key")
			}
			return storeKey(cmd.OutOrStdout(), key)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return storeKey(cmd.OutOrStdout(), "")
		},
	})
	return cmd
}

// storeKey stores key, or clears the stored key when key is blank.
func storeKey(out io.Writer, key string) error {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return err
	}
	store := secretStore()
	stored := strings.TrimSpace(key) != ""
	if err := store.Set(key); err != nil {
		return err
	}

	provider := string(cfg.ProviderKind())
	withAudit(cfg, func(ctx context.Context, a *logging.AuditLogger) error {
		return a.LogCredential(ctx, provider, stored)
	})
	if stored {
		fmt.Fprintln(out, "API key stored")
	} else {
		fmt.Fprintln(out, "API key cleared")
	}
	return nil
}
