package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultPromptTemplate asks for a short Camus-style reflection on the change.
const DefaultPromptTemplate = `You are an AI assistant that generates philosophical commit messages in the style of Albert Camus.
Your task is to analyze git changes and create a commit message that reflects on the absurdity, rebellion, and human condition.

Git Diff:
{diff}

Git Status:
{status}

Generate a philosophical commit message that:
1. Reflects on the nature of the changes made
2. Incorporates themes of existentialism and the absurd
3. Is concise but meaningful (max 150 characters)
4. Avoids technical jargon in favor of philosophical reflection

Respond with only the commit message, no explanations or additional text.`

// ContextMessageFormat wraps a user-supplied hint as a second user turn.
const ContextMessageFormat = "Original commit message context: %s\n\nPlease consider this context when generating the philosophical reflection."

const (
	// DefaultMaxDiffLength bounds the diff embedded in the prompt, in bytes.
	DefaultMaxDiffLength = 8000
	// TruncationMarker is appended to a diff cut at the bound.
	TruncationMarker = "\n... (truncated)"

	DefaultTemperature = 0.7
	DefaultTopP        = 0.9
	DefaultMaxTokens   = 150
)

// DefaultOptions returns the standard sampling hints.
func DefaultOptions() Options {
	return Options{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
	}
}

// PromptInput is everything BuildRequest needs.
type PromptInput struct {
	Diff   string
	Status string
	Model  string
	// Template may be empty to select DefaultPromptTemplate.
	Template string
	// ContextMessage, when non-empty, becomes a second user turn.
	ContextMessage string
	// MaxDiffLength <= 0 selects DefaultMaxDiffLength.
	MaxDiffLength int
	// Options nil selects DefaultOptions. Zero temperature and top_p are
	// sent as given; MaxTokens <= 0 selects DefaultMaxTokens.
	Options *Options
}

// BuildRequest assembles the chat request. It is pure: equal inputs give
// equal requests.
func BuildRequest(in PromptInput) *ChatRequest {
	tmpl := in.Template
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultPromptTemplate
	}

	diff := TruncateDiff(in.Diff, in.MaxDiffLength)

	messages := []ChatMessage{
		{Role: RoleUser, Content: RenderTemplate(tmpl, diff, in.Status)},
	}
	if in.ContextMessage != "" {
		messages = append(messages, ChatMessage{
			Role:    RoleUser,
			Content: fmt.Sprintf(ContextMessageFormat, in.ContextMessage),
		})
	}

	return &ChatRequest{
		Model:    in.Model,
		Messages: messages,
		Stream:   false,
		Options:  withDefaults(in.Options),
	}
}

func withDefaults(o *Options) Options {
	if o == nil {
		return DefaultOptions()
	}
	opts := *o
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return opts
}

// TruncateDiff keeps at most max bytes of diff and appends TruncationMarker
// when diff is longer. The cut may land mid-line but never inside a UTF-8
// sequence, so a multi-byte character is dropped whole.
func TruncateDiff(diff string, max int) string {
	if max <= 0 {
		max = DefaultMaxDiffLength
	}
	if len(diff) <= max {
		return diff
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(diff[cut]) {
		cut--
	}
	return diff[:cut] + TruncationMarker
}

// RenderTemplate substitutes {diff} and {status} in one pass, so braces
// inside the substituted text are never re-expanded. {{ and }} render as
// literal braces.
func RenderTemplate(tmpl, diff, status string) string {
	return strings.NewReplacer(
		"{{", "{",
		"}}", "}",
		"{diff}", diff,
		"{status}", status,
	).Replace(tmpl)
}
