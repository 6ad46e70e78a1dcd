package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI settings",
		Long:  "Settings live in ~/.config/hn/config.yaml. HN_* environment variables override them.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}, &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Save a setting",
		Long:  "Save a setting. Keys: " + strings.Join(sortedConfigKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	})

	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, key := range sortedConfigKeys() {
		v := *configKeys[key](&cfg)
		if strings.Contains(key, "secret") || strings.Contains(key, "api_key") {
			v = mask(v)
		}
		fmt.Fprintf(out, "%-22s %s\n", key+":", v)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	field, ok := configKeys[args[0]]
	if !ok {
		return fmt.Errorf("unknown key %q (valid: %s)", args[0], strings.Join(sortedConfigKeys(), ", "))
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	*field(&cfg) = args[1]

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s saved.\n", args[0])
	return nil
}

// mask keeps the first four characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "…"
}
