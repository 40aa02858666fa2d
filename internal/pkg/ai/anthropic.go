package ai

import (
	"context"

	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
)

const (
	// AnthropicMessagesPath is the Messages API endpoint.
	AnthropicMessagesPath = "/v1/messages"
	// AnthropicVersion is sent in the anthropic-version header.
	AnthropicVersion = "2023-06-01"
	// AnthropicAPIKeyEnv names the environment variable holding the key.
	AnthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
)

// AnthropicProvider talks to the Anthropic Messages API.
type AnthropicProvider struct {
	transport *jsonTransport
	model     string
	extractor ResponseExtractor
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p,omitempty"`
}

// NewAnthropicProvider creates an Anthropic provider. The API key is required.
func NewAnthropicProvider(cfg ProviderConfig) (*AnthropicProvider, error) {
	return newAnthropicProvider(cfg, ContentBlocksExtractor{})
}

func newAnthropicProvider(cfg ProviderConfig, extractor ResponseExtractor) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewMissingAPIKeyError("Anthropic", AnthropicAPIKeyEnv)
	}
	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": AnthropicVersion,
	}
	return &AnthropicProvider{
		transport: newJSONTransport("Anthropic", NormalizeHost(cfg.Host), cfg.Timeout, headers),
		model:     cfg.Model,
		extractor: extractor,
	}, nil
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "Anthropic" }

// Endpoint implements Provider.
func (p *AnthropicProvider) Endpoint() string { return p.transport.url(AnthropicMessagesPath) }

// Chat implements Provider.
func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	body := p.translate(req)

	respBody, err := p.transport.post(ctx, AnthropicMessagesPath, body, req.PromptLength(), body.Model)
	if err != nil {
		return "", err
	}

	text, err := p.extractor.Extract(respBody)
	if err != nil {
		return "", apperrors.NewMalformedResponseError(p.Name(), err)
	}
	return text, nil
}

func (p *AnthropicProvider) translate(req *ChatRequest) *anthropicRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.Options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &anthropicRequest{
		Model:       model,
		Messages:    mergeConsecutive(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: req.Options.Temperature,
		TopP:        req.Options.TopP,
	}
}

// mergeConsecutive joins adjacent turns of the same role with a blank line;
// the Messages API requires roles to alternate.
func mergeConsecutive(messages []ChatMessage) []ChatMessage {
	merged := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if n := len(merged); n > 0 && merged[n-1].Role == m.Role {
			merged[n-1].Content += "\n\n" + m.Content
			continue
		}
		merged = append(merged, m)
	}
	return merged
}
