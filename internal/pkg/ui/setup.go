package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/gitcamus/gitcamus/internal/pkg/config"
)

// SettingsWriter persists keys to the user settings file.
type SettingsWriter interface {
	Init() error
	Set(key, value string) error
	GetConfigPath() string
}

// SetupAnswers are the values collected by the setup wizard.
type SetupAnswers struct {
	Backend string
	Host    string
	Model   string
	APIKey  string
}

// DefaultAnswers returns the prefilled answers for a backend.
func DefaultAnswers(backend string) SetupAnswers {
	switch backend {
	case config.BackendAnthropic:
		return SetupAnswers{Backend: backend, Host: config.DefaultAnthropicHost, Model: config.DefaultAnthropicModel}
	case config.BackendOpenAI:
		return SetupAnswers{Backend: backend, Host: config.DefaultOpenAIHost, Model: config.DefaultOpenAIModel}
	default:
		return SetupAnswers{Backend: config.BackendOllama, Host: config.DefaultOllamaHost, Model: config.DefaultOllamaModel}
	}
}

// NeedsAPIKey reports whether the backend is a hosted API.
func (a SetupAnswers) NeedsAPIKey() bool {
	return a.Backend != config.BackendOllama
}

// Settings returns the configuration keys the answers map to. An empty API
// key is left out so an existing key or environment variable is kept.
func (a SetupAnswers) Settings() [][2]string {
	settings := [][2]string{
		{"backend", a.Backend},
		{a.Backend + ".host", strings.TrimSpace(a.Host)},
		{a.Backend + ".model", strings.TrimSpace(a.Model)},
	}
	if key := strings.TrimSpace(a.APIKey); key != "" && a.NeedsAPIKey() {
		settings = append(settings, [2]string{a.Backend + ".api_key", key})
	}
	return settings
}

// ValidateModel rejects blank model names.
func ValidateModel(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("model name cannot be empty")
	}
	return nil
}

// ValidateHost requires a non-empty host.
func ValidateHost(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("host cannot be empty")
	}
	if strings.ContainsAny(strings.TrimSpace(s), " \t") {
		return errors.New("host cannot contain spaces")
	}
	return nil
}

// ValidateAPIKey accepts an empty key (taken from the environment later) or
// a plausible one.
func ValidateAPIKey(s string) error {
	s = strings.TrimSpace(s)
	if s != "" && len(s) < 8 {
		return errors.New("api key too short")
	}
	return nil
}

// SaveAnswers writes the answers through w.
func SaveAnswers(w SettingsWriter, a SetupAnswers) error {
	for _, kv := range a.Settings() {
		if err := w.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", kv[0], err)
		}
	}
	return nil
}

// RunInteractiveSetup asks for backend, host, model and API key with huh
// forms, then saves them to the user settings file.
func RunInteractiveSetup(w SettingsWriter, errOut io.Writer) error {
	fmt.Fprintln(errOut, "Let's set up gitcamus.")
	fmt.Fprintln(errOut)

	// An existing file is fine; Init only creates a missing one.
	_ = w.Init()

	backend := config.BackendOllama
	err := huh.NewSelect[string]().
		Title("Select backend").
		Options(
			huh.NewOption("Ollama (local)", config.BackendOllama),
			huh.NewOption("Anthropic", config.BackendAnthropic),
			huh.NewOption("OpenAI", config.BackendOpenAI),
		).
		Value(&backend).
		Run()
	if err != nil {
		return err
	}

	answers := DefaultAnswers(backend)

	fields := []huh.Field{
		huh.NewInput().
			Title("Host").
			Description("Base URL of the backend").
			Value(&answers.Host).
			Validate(ValidateHost),
		huh.NewInput().
			Title("Model").
			Value(&answers.Model).
			Validate(ValidateModel),
	}
	if answers.NeedsAPIKey() {
		fields = append(fields,
			huh.NewInput().
				Title("API Key").
				Description(fmt.Sprintf("Leave empty to use %s_API_KEY", strings.ToUpper(backend))).
				Value(&answers.APIKey).
				Password(true).
				Validate(ValidateAPIKey),
		)
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	if err := SaveAnswers(w, answers); err != nil {
		return err
	}

	fmt.Fprintf(errOut, "\nConfiguration saved to %s\n", w.GetConfigPath())
	return nil
}
