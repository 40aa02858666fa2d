// Package config resolves gitcamus settings from defaults, the user settings
// file, the repository overlay and the environment.
package config

import (
	"fmt"
	"strings"
)

// Backend kinds.
const (
	BackendOllama    = "ollama"
	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
)

// Backends lists every supported backend kind.
var Backends = []string{BackendOllama, BackendAnthropic, BackendOpenAI}

// Config is the resolved configuration for one run.
type Config struct {
	Backend    string           `mapstructure:"backend"`
	Ollama     BackendConfig    `mapstructure:"ollama"`
	Anthropic  BackendConfig    `mapstructure:"anthropic"`
	OpenAI     BackendConfig    `mapstructure:"openai"`
	Prompt     PromptConfig     `mapstructure:"prompt"`
	Generation GenerationConfig `mapstructure:"generation"`
	UI         UIConfig         `mapstructure:"ui"`
}

// BackendConfig describes how to reach one chat backend.
type BackendConfig struct {
	Host   string `mapstructure:"host"`
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api_key"`
	// APIKeyParameter names an SSM parameter holding the key when APIKey is empty.
	APIKeyParameter string `mapstructure:"api_key_parameter"`
}

// PromptConfig controls how the prompt is assembled.
type PromptConfig struct {
	// Template uses {diff} and {status} placeholders. Empty selects the built-in template.
	Template      string `mapstructure:"template"`
	MaxDiffLength int    `mapstructure:"max_diff_length"`
}

// GenerationConfig holds sampling options and the request timeout.
type GenerationConfig struct {
	Temperature    float32 `mapstructure:"temperature"`
	TopP           float32 `mapstructure:"top_p"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
	Spinner      bool `mapstructure:"spinner"`
}

// Active returns the selected backend kind and its settings.
func (c *Config) Active() (string, BackendConfig) {
	kind := strings.ToLower(strings.TrimSpace(c.Backend))
	switch kind {
	case BackendAnthropic:
		return kind, c.Anthropic
	case BackendOpenAI:
		return kind, c.OpenAI
	default:
		return BackendOllama, c.Ollama
	}
}

// Validate checks that the selected backend is known.
func (c *Config) Validate() error {
	if IsValidBackend(c.Backend) {
		return nil
	}
	return fmt.Errorf("unknown backend %q (valid: %s)", c.Backend, strings.Join(Backends, ", "))
}

// IsValidBackend reports whether name is a supported backend kind.
func IsValidBackend(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// Manager defines the interface for configuration management.
type Manager interface {
	Load() (*Config, error)
	Set(key string, value string) error
	Get(key string) (string, error)
	Init() error
	List() map[string]interface{}
	GetConfigPath() string
}
