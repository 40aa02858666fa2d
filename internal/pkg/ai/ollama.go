package ai

import (
	"context"

	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
)

// OllamaChatPath is the chat endpoint of an Ollama server.
const OllamaChatPath = "/api/chat"

// OllamaProvider talks to a local or remote Ollama server.
type OllamaProvider struct {
	transport *jsonTransport
	model     string
	extractor ResponseExtractor
}

// NewOllamaProvider creates an Ollama provider. A host without a scheme is
// treated as plain HTTP.
func NewOllamaProvider(cfg ProviderConfig) *OllamaProvider {
	return newOllamaProvider(cfg, MessageContentExtractor{})
}

func newOllamaProvider(cfg ProviderConfig, extractor ResponseExtractor) *OllamaProvider {
	return &OllamaProvider{
		transport: newJSONTransport("Ollama", NormalizeHost(cfg.Host), cfg.Timeout, nil),
		model:     cfg.Model,
		extractor: extractor,
	}
}

// Name implements Provider.
func (p *OllamaProvider) Name() string { return "Ollama" }

// Endpoint implements Provider.
func (p *OllamaProvider) Endpoint() string { return p.transport.url(OllamaChatPath) }

// Chat sends req as-is; its JSON encoding is the /api/chat body.
func (p *OllamaProvider) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	body := *req
	if body.Model == "" {
		body.Model = p.model
	}
	body.Stream = false

	respBody, err := p.transport.post(ctx, OllamaChatPath, &body, body.PromptLength(), body.Model)
	if err != nil {
		return "", err
	}

	text, err := p.extractor.Extract(respBody)
	if err != nil {
		return "", apperrors.NewMalformedResponseError(p.Name(), err)
	}
	return text, nil
}
