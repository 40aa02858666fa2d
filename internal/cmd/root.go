// Package cmd contains the CLI command definitions for gitcamus.
package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitcamus/gitcamus/internal/app"
	"github.com/gitcamus/gitcamus/internal/pkg/ai"
	"github.com/gitcamus/gitcamus/internal/pkg/config"
	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
	"github.com/gitcamus/gitcamus/internal/pkg/git"
	"github.com/gitcamus/gitcamus/internal/pkg/security"
	"github.com/gitcamus/gitcamus/internal/pkg/ui"
)

// RootFlags holds the flags of the default action.
type RootFlags struct {
	Show       bool
	Message    string
	Backend    string
	ConfigPath string
	Verbose    bool
}

// parameterGetter builds the SSM client used for api_key_parameter lookups.
var parameterGetter = config.DefaultParameterGetter

// NewRootCmd creates the root command for the gitcamus CLI.
func NewRootCmd(version, commitHash, date string) *cobra.Command {
	flags := &RootFlags{}

	rootCmd := &cobra.Command{
		Use:   "gitcamus",
		Short: "Commit staged changes with a philosophical message",
		Long: `gitcamus reads your staged changes, asks a language model for a short
commit message in the voice of Albert Camus, and commits with it.

The backend is Ollama by default; Anthropic and OpenAI are also supported.

Examples:
  gitcamus                       # generate and commit
  gitcamus --show                # print the message only
  gitcamus -m "fix typo"         # give the model a hint
  gitcamus --backend anthropic   # use another backend for this run`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, flags)
		},
	}

	rootCmd.SetVersionTemplate(`gitcamus {{.Version}}
Commit: ` + commitHash + `
Built:  ` + date + "\n")

	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "Config file path (default: ~/.gitcamus/config.yaml)")

	rootCmd.Flags().BoolVarP(&flags.Show, "show", "s", false, "Print the generated message instead of committing")
	rootCmd.Flags().StringVarP(&flags.Message, "message", "m", "", "Context for the model, such as your own draft message")
	rootCmd.Flags().StringVar(&flags.Backend, "backend", "", "Backend to use for this run (ollama, anthropic, openai)")

	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}

// runRoot wires the dependencies and runs one generate-and-deliver workflow.
func runRoot(cmd *cobra.Command, flags *RootFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	apperrors.SetVerbose(flags.Verbose)
	apperrors.SetOutput(cmd.ErrOrStderr())

	gitClient := git.NewClient()

	cfg, err := loadConfig(ctx, gitClient, flags)
	if err != nil {
		return err
	}
	apperrors.SetColor(cfg.UI.ColorEnabled && ui.IsTerminal(cmd.ErrOrStderr()))

	presenter := ui.NewPresenter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.UI.ColorEnabled, cfg.UI.Spinner)
	service := app.NewCommitService(gitClient, func(ctx context.Context) (ai.Provider, error) {
		return newProvider(ctx, cfg)
	}, presenter, cfg)

	return service.Run(ctx, &app.Options{
		Show:           flags.Show,
		ContextMessage: flags.Message,
	})
}

func loadConfig(ctx context.Context, gitClient git.Client, flags *RootFlags) (*config.Config, error) {
	cfgMgr, err := config.NewManager(flags.ConfigPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to create config manager")
	}
	if cfgMgr.ConfigExists() {
		apperrors.Debug("Using settings file: %s", cfgMgr.GetConfigPath())
	} else {
		apperrors.Debug("No settings file at %s, using defaults", cfgMgr.GetConfigPath())
	}

	// Outside a repository there is no overlay; the service reports the error.
	if root, err := gitClient.RepoRoot(ctx); err == nil {
		cfgMgr.SetRepoSettingsPath(filepath.Join(root, config.RepoSettingsFile))
	}

	if flags.Backend != "" {
		if !config.IsValidBackend(flags.Backend) {
			return nil, apperrors.New(apperrors.ErrInvalidArguments, fmt.Sprintf("unknown backend %q", flags.Backend)).
				WithSuggestion("Valid backends: ollama, anthropic, openai")
		}
		cfgMgr.SetOverride("backend", flags.Backend)
		apperrors.Debug("Backend overridden via flag: %s", flags.Backend)
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewInvalidConfigError(err.Error())
	}
	return cfg, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (ai.Provider, error) {
	kind, backend := cfg.Active()

	apiKey, err := config.ResolveAPIKey(ctx, backend, parameterGetter)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to resolve API key").
			WithSuggestion(fmt.Sprintf("Check the SSM parameter %s and your AWS credentials", backend.APIKeyParameter))
	}

	apperrors.Debug("Backend: %s, host: %s, model: %s", kind, backend.Host, backend.Model)
	if apiKey != "" {
		apperrors.Debug("API key: %s", config.MaskAPIKey(apiKey))
	}
	if err := security.ValidateAPIKeyFormat(kind, apiKey); err != nil {
		apperrors.Warn("%v", err)
	}

	return ai.NewProvider(kind, ai.ProviderConfig{
		Host:    backend.Host,
		Model:   backend.Model,
		APIKey:  apiKey,
		Timeout: time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
	})
}
