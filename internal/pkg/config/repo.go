package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// RepoSettingsFile is the per-repository overlay, looked up at the repository root.
const RepoSettingsFile = ".gitcamus.toml"

// repoSettings mirrors the keys a repository may pin. API keys are
// deliberately absent: they do not belong in a tracked file.
type repoSettings struct {
	Backend    *string         `toml:"backend"`
	Ollama     *repoBackend    `toml:"ollama"`
	Anthropic  *repoBackend    `toml:"anthropic"`
	OpenAI     *repoBackend    `toml:"openai"`
	Prompt     *repoPrompt     `toml:"prompt"`
	Generation *repoGeneration `toml:"generation"`
}

type repoBackend struct {
	Host  *string `toml:"host"`
	Model *string `toml:"model"`
}

type repoPrompt struct {
	Template      *string `toml:"template"`
	MaxDiffLength *int64  `toml:"max_diff_length"`
}

type repoGeneration struct {
	Temperature    *float64 `toml:"temperature"`
	TopP           *float64 `toml:"top_p"`
	MaxTokens      *int64   `toml:"max_tokens"`
	TimeoutSeconds *int64   `toml:"timeout_seconds"`
}

// mergeRepoSettings decodes path and merges the keys it sets into the
// config layer of v. Environment bindings keep their precedence.
func mergeRepoSettings(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var file repoSettings
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", RepoSettingsFile, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q in %s", undecoded[0].String(), RepoSettingsFile)
	}

	return v.MergeConfigMap(file.toMap())
}

func (r *repoSettings) toMap() map[string]interface{} {
	out := make(map[string]interface{})
	if r.Backend != nil && *r.Backend != "" {
		out["backend"] = *r.Backend
	}
	for name, b := range map[string]*repoBackend{
		BackendOllama:    r.Ollama,
		BackendAnthropic: r.Anthropic,
		BackendOpenAI:    r.OpenAI,
	} {
		if b == nil {
			continue
		}
		section := make(map[string]interface{})
		if b.Host != nil && *b.Host != "" {
			section["host"] = *b.Host
		}
		if b.Model != nil && *b.Model != "" {
			section["model"] = *b.Model
		}
		if len(section) > 0 {
			out[name] = section
		}
	}
	if p := r.Prompt; p != nil {
		section := make(map[string]interface{})
		if p.Template != nil && *p.Template != "" {
			section["template"] = *p.Template
		}
		if p.MaxDiffLength != nil && *p.MaxDiffLength > 0 {
			section["max_diff_length"] = int(*p.MaxDiffLength)
		}
		if len(section) > 0 {
			out["prompt"] = section
		}
	}
	if g := r.Generation; g != nil {
		section := make(map[string]interface{})
		if g.Temperature != nil {
			section["temperature"] = *g.Temperature
		}
		if g.TopP != nil {
			section["top_p"] = *g.TopP
		}
		if g.MaxTokens != nil && *g.MaxTokens > 0 {
			section["max_tokens"] = int(*g.MaxTokens)
		}
		if g.TimeoutSeconds != nil && *g.TimeoutSeconds > 0 {
			section["timeout_seconds"] = int(*g.TimeoutSeconds)
		}
		if len(section) > 0 {
			out["generation"] = section
		}
	}
	return out
}
