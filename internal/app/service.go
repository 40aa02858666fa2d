// Package app contains the application layer with business orchestration logic.
package app

import (
	"context"

	"github.com/gitcamus/gitcamus/internal/pkg/ai"
	"github.com/gitcamus/gitcamus/internal/pkg/config"
	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
	"github.com/gitcamus/gitcamus/internal/pkg/git"
	"github.com/gitcamus/gitcamus/internal/pkg/message"
	"github.com/gitcamus/gitcamus/internal/pkg/security"
	"github.com/gitcamus/gitcamus/internal/pkg/ui"
)

// SpinnerText is shown while waiting for the backend.
const SpinnerText = "Contemplating the absurdity of your changes..."

// Options contains options for one run.
type Options struct {
	// Show prints the message instead of committing.
	Show bool
	// ContextMessage is an optional hint sent as a second user turn.
	ContextMessage string
}

// ProviderFactory builds the backend provider. It runs only once staged
// changes are known to exist.
type ProviderFactory func(ctx context.Context) (ai.Provider, error)

// StaticProvider returns a ProviderFactory that always yields p.
func StaticProvider(p ai.Provider) ProviderFactory {
	return func(context.Context) (ai.Provider, error) {
		return p, nil
	}
}

// CommitService runs the generate-then-deliver workflow.
type CommitService struct {
	gitClient   git.Client
	newProvider ProviderFactory
	presenter   ui.Presenter
	config      *config.Config
}

// NewCommitService creates a new CommitService with the given dependencies.
func NewCommitService(gitClient git.Client, newProvider ProviderFactory, presenter ui.Presenter, cfg *config.Config) *CommitService {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &CommitService{
		gitClient:   gitClient,
		newProvider: newProvider,
		presenter:   presenter,
		config:      cfg,
	}
}

// Run executes one workflow:
// check repository → read state → build request → call backend → show or commit.
//
// Nothing staged is not an error: it is reported and Run returns nil without
// building a provider or contacting the backend.
func (s *CommitService) Run(ctx context.Context, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}

	if err := s.gitClient.CheckRepository(ctx); err != nil {
		return err
	}

	state := s.readState(ctx)
	if !state.HasStagedChanges() {
		s.presenter.NoChanges()
		return nil
	}
	s.logStats(ctx)

	provider, err := s.newProvider(ctx)
	if err != nil {
		return err
	}
	s.warnSecrets(state, provider)

	req := ai.BuildRequest(s.promptInput(state, opts))

	text, err := s.generate(ctx, provider, req)
	if err != nil {
		return err
	}

	msg, err := message.New(text)
	if err != nil {
		return apperrors.NewEmptyMessageError()
	}
	for _, w := range msg.Warnings() {
		if apperrors.IsVerbose() {
			apperrors.Warn("%s", w)
		}
	}

	if opts.Show {
		return s.presenter.Show(msg.String())
	}

	if err := s.gitClient.Commit(ctx, msg.String()); err != nil {
		return err
	}
	s.presenter.Committed(msg.String())
	return nil
}

func (s *CommitService) readState(ctx context.Context) git.RepoState {
	return git.RepoState{
		Status: s.gitClient.Status(ctx),
		Diff:   s.gitClient.StagedDiff(ctx),
	}
}

// logStats is verbose-only; a failure here never stops the run.
func (s *CommitService) logStats(ctx context.Context) {
	if !apperrors.IsVerbose() {
		return
	}
	stats, err := s.gitClient.DiffStats(ctx)
	if err != nil {
		apperrors.Debug("could not compute diff stats: %v", err)
		return
	}
	apperrors.Debug("Staged: %d files, +%d -%d", stats.TotalFiles, stats.TotalAdditions, stats.TotalDeletions)
}

// warnSecrets flags likely credentials in a diff bound for a hosted backend.
func (s *CommitService) warnSecrets(state git.RepoState, provider ai.Provider) {
	kind, _ := s.config.Active()
	if !security.IsHosted(kind) {
		return
	}
	for _, f := range security.ScanDiff(state.Diff) {
		apperrors.Warn("Staged diff may contain a secret (%s); it will be sent to %s", f, provider.Name())
	}
}

func (s *CommitService) promptInput(state git.RepoState, opts *Options) ai.PromptInput {
	_, backend := s.config.Active()
	gen := s.config.Generation
	return ai.PromptInput{
		Diff:           state.Diff,
		Status:         state.Status,
		Model:          backend.Model,
		Template:       s.config.Prompt.Template,
		ContextMessage: opts.ContextMessage,
		MaxDiffLength:  s.config.Prompt.MaxDiffLength,
		Options: &ai.Options{
			Temperature: gen.Temperature,
			TopP:        gen.TopP,
			MaxTokens:   gen.MaxTokens,
		},
	}
}

func (s *CommitService) generate(ctx context.Context, provider ai.Provider, req *ai.ChatRequest) (string, error) {
	apperrors.Debug("Using %s at %s with model %s", provider.Name(), provider.Endpoint(), req.Model)

	spinner := s.presenter.ShowSpinner(SpinnerText)
	text, err := provider.Chat(ctx, req)
	spinner.Stop()
	return text, err
}
