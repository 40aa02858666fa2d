package ai

import (
	"fmt"
	"strings"
)

// Backend kinds accepted by NewProvider.
const (
	BackendOllama    = "ollama"
	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
)

// NewProvider creates the provider for a backend kind. An empty kind
// selects Ollama.
func NewProvider(kind string, cfg ProviderConfig) (Provider, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = BackendOllama
	}
	if kind == BackendOpenAI {
		return NewOpenAIProvider(cfg)
	}

	extractor, err := ExtractorFor(kind)
	if err != nil {
		return nil, fmt.Errorf("unknown backend: %s", kind)
	}
	if kind == BackendAnthropic {
		return newAnthropicProvider(cfg, extractor)
	}
	return newOllamaProvider(cfg, extractor), nil
}
