package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitcamus/gitcamus/internal/pkg/config"
	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
	"github.com/gitcamus/gitcamus/internal/pkg/ui"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gitcamus configuration",
		Long: `Manage gitcamus settings.

Settings live in ~/.gitcamus/config.yaml by default. A .gitcamus.toml file
at the repository root overrides them per repository, and environment
variables such as OLLAMA_HOST or ANTHROPIC_API_KEY override both.`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigGetCmd())
	configCmd.AddCommand(newConfigListCmd())
	configCmd.AddCommand(newConfigSetupCmd())

	return configCmd
}

func managerFor(cmd *cobra.Command) (*config.ViperManager, error) {
	configPath, _ := cmd.Flags().GetString("config")
	mgr, err := config.NewManager(configPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to create config manager")
	}
	return mgr, nil
}

// newConfigInitCmd creates the 'config init' subcommand.
func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long: `Create a settings file with default values.

The file is created with permissions 0600 (user read/write only)
as it may contain API keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := managerFor(cmd)
			if err != nil {
				return err
			}

			if err := mgr.Init(); err != nil {
				return apperrors.NewInvalidConfigError(err.Error()).
					WithSuggestion("Use 'gitcamus config set' to change individual values")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at %s\n", mgr.GetConfigPath())
			return nil
		},
	}
}

// newConfigSetCmd creates the 'config set' subcommand.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value by key.

Supports nested keys using dot notation.

Examples:
  gitcamus config set backend anthropic
  gitcamus config set anthropic.api_key sk-ant-xxx
  gitcamus config set ollama.model mistral
  gitcamus config set openai.api_key_parameter /gitcamus/openai-key
  gitcamus config set prompt.max_diff_length 12000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			mgr, err := managerFor(cmd)
			if err != nil {
				return err
			}
			if err := mgr.Set(key, value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, displayValue(key, value))
			return nil
		},
	}
}

// newConfigGetCmd creates the 'config get' subcommand.
func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one resolved configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := managerFor(cmd)
			if err != nil {
				return err
			}
			value, err := mgr.Get(args[0])
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrInvalidArguments, "cannot read configuration value")
			}
			fmt.Fprintln(cmd.OutOrStdout(), displayValue(args[0], value))
			return nil
		},
	}
}

// newConfigListCmd creates the 'config list' subcommand.
func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `Display all resolved configuration values.

API keys are masked, showing only the last 4 characters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := managerFor(cmd)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), mgr.List())
			return nil
		},
	}
}

// newConfigSetupCmd creates the 'config setup' subcommand.
func newConfigSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactively choose a backend and model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := managerFor(cmd)
			if err != nil {
				return err
			}
			return ui.RunInteractiveSetup(mgr, cmd.ErrOrStderr())
		},
	}
}

// displayValue masks API keys.
func displayValue(key, value string) string {
	if isSecretKey(key) {
		return config.MaskAPIKey(value)
	}
	return value
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return strings.HasSuffix(key, "api_key")
}

// flattenSettings turns nested settings into sorted "a.b: value" lines.
func flattenSettings(prefix string, settings map[string]interface{}) []string {
	var lines []string
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]interface{}); ok {
			lines = append(lines, flattenSettings(fullKey, nested)...)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", fullKey, displayValue(fullKey, fmt.Sprintf("%v", value))))
	}
	sort.Strings(lines)
	return lines
}

// printSettings prints configuration settings one key per line.
func printSettings(w io.Writer, settings map[string]interface{}) {
	for _, line := range flattenSettings("", settings) {
		fmt.Fprintln(w, line)
	}
}
