package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
)

const (
	// DefaultConfigDir is the directory under the home directory holding user settings.
	DefaultConfigDir = ".gitcamus"
	// DefaultConfigFileExt is the default config file extension.
	DefaultConfigFileExt = "yaml"
	// EnvPrefix prefixes gitcamus-specific environment variables.
	EnvPrefix = "GITCAMUS"
)

// Defaults.
const (
	DefaultBackend        = BackendOllama
	DefaultOllamaHost     = "http://localhost:11434"
	DefaultOllamaModel    = "llama3.2"
	DefaultAnthropicHost  = "https://api.anthropic.com"
	DefaultAnthropicModel = "claude-3-5-sonnet-20240620"
	DefaultOpenAIHost     = "https://api.openai.com/v1"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultMaxDiffLength  = 8000
	DefaultTemperature    = 0.7
	DefaultTopP           = 0.9
	DefaultMaxTokens      = 150
	DefaultTimeoutSeconds = 120
)

// ViperManager implements Manager on top of viper.
//
// Precedence, strongest first: overrides, environment, repository overlay,
// user settings file, defaults.
type ViperManager struct {
	v            *viper.Viper
	configPath   string
	repoSettings string
	overrides    map[string]interface{}
}

// NewManager creates a new configuration manager.
// If configPath is empty, ~/.gitcamus/config.yaml is used.
func NewManager(configPath string) (*ViperManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, DefaultConfigDir, "config."+DefaultConfigFileExt)
	}

	m := &ViperManager{
		configPath: configPath,
		overrides:  make(map[string]interface{}),
	}
	m.v = m.newViper(true)
	return m, nil
}

func (m *ViperManager) newViper(withFile bool) *viper.Viper {
	v := viper.New()
	v.SetConfigType(DefaultConfigFileExt)
	if withFile {
		v.SetConfigFile(m.configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults must exist before nested keys can be bound to the environment.
	setDefaults(v)
	bindEnvVars(v)
	return v
}

// bindEnvVars binds nested keys explicitly; AutomaticEnv does not see them
// during Unmarshal. The backend-native names come first so they win over
// the prefixed aliases.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("backend", "GITCAMUS_BACKEND")

	for _, backend := range Backends {
		upper := strings.ToUpper(backend)
		_ = v.BindEnv(backend+".host", upper+"_HOST", EnvPrefix+"_"+upper+"_HOST")
		_ = v.BindEnv(backend+".model", upper+"_MODEL", EnvPrefix+"_"+upper+"_MODEL")
		_ = v.BindEnv(backend+".api_key", upper+"_API_KEY", EnvPrefix+"_"+upper+"_API_KEY")
		_ = v.BindEnv(backend+".api_key_parameter", EnvPrefix+"_"+upper+"_API_KEY_PARAMETER")
	}

	_ = v.BindEnv("prompt.template", "GITCAMUS_PROMPT_TEMPLATE")
	_ = v.BindEnv("prompt.max_diff_length", "GITCAMUS_PROMPT_MAX_DIFF_LENGTH")

	_ = v.BindEnv("generation.temperature", "GITCAMUS_GENERATION_TEMPERATURE")
	_ = v.BindEnv("generation.top_p", "GITCAMUS_GENERATION_TOP_P")
	_ = v.BindEnv("generation.max_tokens", "GITCAMUS_GENERATION_MAX_TOKENS")
	_ = v.BindEnv("generation.timeout_seconds", "GITCAMUS_GENERATION_TIMEOUT_SECONDS")

	_ = v.BindEnv("ui.color_enabled", "GITCAMUS_UI_COLOR_ENABLED")
	_ = v.BindEnv("ui.spinner", "GITCAMUS_UI_SPINNER")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", DefaultBackend)

	v.SetDefault("ollama.host", DefaultOllamaHost)
	v.SetDefault("ollama.model", DefaultOllamaModel)
	v.SetDefault("ollama.api_key", "")
	v.SetDefault("ollama.api_key_parameter", "")

	v.SetDefault("anthropic.host", DefaultAnthropicHost)
	v.SetDefault("anthropic.model", DefaultAnthropicModel)
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.api_key_parameter", "")

	v.SetDefault("openai.host", DefaultOpenAIHost)
	v.SetDefault("openai.model", DefaultOpenAIModel)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.api_key_parameter", "")

	v.SetDefault("prompt.template", "")
	v.SetDefault("prompt.max_diff_length", DefaultMaxDiffLength)

	v.SetDefault("generation.temperature", DefaultTemperature)
	v.SetDefault("generation.top_p", DefaultTopP)
	v.SetDefault("generation.max_tokens", DefaultMaxTokens)
	v.SetDefault("generation.timeout_seconds", DefaultTimeoutSeconds)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.spinner", true)
}

// GetConfigPath returns the path to the configuration file.
func (m *ViperManager) GetConfigPath() string {
	return m.configPath
}

// SetRepoSettingsPath sets the repository overlay file merged over the
// user settings file. A missing file is ignored.
func (m *ViperManager) SetRepoSettingsPath(path string) {
	m.repoSettings = path
}

// Load resolves the configuration.
//
// Settings that cannot be read or decoded are never fatal: the failure is
// logged at debug level and Load answers with defaults plus environment.
func (m *ViperManager) Load() (*Config, error) {
	if err := readSettings(m.v); err != nil {
		apperrors.Debug("ignoring settings file %s: %v", m.configPath, err)
		return m.loadFallback()
	}

	if m.repoSettings != "" {
		if err := mergeRepoSettings(m.v, m.repoSettings); err != nil {
			apperrors.Debug("ignoring repository settings %s: %v", m.repoSettings, err)
		}
	}

	m.applyOverrides(m.v)

	cfg, err := decode(m.v)
	if err != nil {
		apperrors.Debug("settings could not be decoded, using defaults: %v", err)
		return m.loadFallback()
	}
	return cfg, nil
}

func (m *ViperManager) loadFallback() (*Config, error) {
	v := m.newViper(false)
	m.applyOverrides(v)

	cfg, err := decode(v)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "invalid configuration in environment")
	}
	return cfg, nil
}

func (m *ViperManager) applyOverrides(v *viper.Viper) {
	for key, value := range m.overrides {
		v.Set(key, value)
	}
}

func readSettings(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Init creates a new configuration file with default values.
// Sets file permissions to 0600 for security.
func (m *ViperManager) Init() error {
	if _, err := os.Stat(m.configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", m.configPath)
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Only defaults are written; environment values such as API keys stay out of the file.
	v := viper.New()
	v.SetConfigType(DefaultConfigFileExt)
	setDefaults(v)
	if err := v.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Chmod(m.configPath, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return nil
}

// Set persists a single key to the user settings file.
// Supports nested keys using dot notation (e.g., "ollama.model").
func (m *ViperManager) Set(key string, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))

	defaults := viper.New()
	setDefaults(defaults)
	if !defaults.IsSet(key) {
		return apperrors.New(apperrors.ErrInvalidArguments, fmt.Sprintf("unknown configuration key: %s", key))
	}
	if key == "backend" && !IsValidBackend(value) {
		return apperrors.New(apperrors.ErrInvalidArguments, fmt.Sprintf("unknown backend %q (valid: %s)", value, strings.Join(Backends, ", ")))
	}

	convertedValue, err := convertValue(value, defaults.Get(key))
	if err != nil {
		return fmt.Errorf("failed to convert value for key %s: %w", key, err)
	}

	// The file is rewritten from its own contents so environment values never leak into it.
	file := viper.New()
	file.SetConfigType(DefaultConfigFileExt)
	file.SetConfigFile(m.configPath)
	if err := readSettings(file); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	file.Set(key, convertedValue)

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := file.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(m.configPath, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	m.v.Set(key, convertedValue)
	return nil
}

// convertValue converts a string value to the type of the existing value.
func convertValue(value string, existingValue interface{}) (interface{}, error) {
	if existingValue == nil {
		return value, nil
	}

	switch existingValue.(type) {
	case bool:
		return strconv.ParseBool(value)
	case int, int64:
		return strconv.ParseInt(value, 10, 64)
	case float32, float64:
		return strconv.ParseFloat(value, 64)
	default:
		return value, nil
	}
}

// Get retrieves a resolved configuration value by key.
func (m *ViperManager) Get(key string) (string, error) {
	if err := readSettings(m.v); err != nil {
		return "", fmt.Errorf("failed to read config file: %w", err)
	}

	value := m.v.Get(key)
	if value == nil {
		return "", fmt.Errorf("key not found: %s", key)
	}

	return fmt.Sprintf("%v", value), nil
}

// List returns all resolved configuration values as a map.
func (m *ViperManager) List() map[string]interface{} {
	_ = readSettings(m.v)
	return m.v.AllSettings()
}

// SetOverride sets a non-persistent override, used for command-line flags.
func (m *ViperManager) SetOverride(key string, value interface{}) {
	m.overrides[key] = value
	m.v.Set(key, value)
}

// ConfigExists checks if the configuration file exists.
func (m *ViperManager) ConfigExists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// MaskAPIKey masks an API key, showing only the last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	return apperrors.MaskAPIKey(key)
}
