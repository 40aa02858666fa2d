package ai

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse reports a backend reply without the expected text field.
var ErrMalformedResponse = errors.New("malformed response")

// ResponseExtractor pulls the generated text out of a backend-specific JSON body.
type ResponseExtractor interface {
	Extract(body []byte) (string, error)
	// Path names the field the text is read from, for diagnostics.
	Path() string
}

// MessageContentExtractor reads message.content (Ollama /api/chat).
type MessageContentExtractor struct{}

// ContentBlocksExtractor reads the first text block of content (Anthropic Messages API).
type ContentBlocksExtractor struct{}

// backendErrorBody is the error envelope some backends return with a 200.
type backendErrorBody struct {
	Error json.RawMessage `json:"error"`
}

func malformed(path string, body []byte, cause error) error {
	var e backendErrorBody
	if json.Unmarshal(body, &e) == nil && len(e.Error) > 0 && string(e.Error) != "null" {
		return fmt.Errorf("%w: missing %s, backend reported %s", ErrMalformedResponse, path, e.Error)
	}
	if cause != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, cause)
	}
	return fmt.Errorf("%w: missing %s", ErrMalformedResponse, path)
}

// Path implements ResponseExtractor.
func (MessageContentExtractor) Path() string { return "message.content" }

// Extract implements ResponseExtractor.
func (x MessageContentExtractor) Extract(body []byte) (string, error) {
	var resp struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", malformed(x.Path(), body, err)
	}
	if resp.Message == nil || resp.Message.Content == nil {
		return "", malformed(x.Path(), body, nil)
	}
	return *resp.Message.Content, nil
}

// Path implements ResponseExtractor.
func (ContentBlocksExtractor) Path() string { return "content[0].text" }

// Extract implements ResponseExtractor.
func (x ContentBlocksExtractor) Extract(body []byte) (string, error) {
	var resp struct {
		Content []struct {
			Type string  `json:"type"`
			Text *string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", malformed(x.Path(), body, err)
	}
	for _, block := range resp.Content {
		if (block.Type == "" || block.Type == "text") && block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", malformed(x.Path(), body, nil)
}

// ExtractorFor returns the extractor for a backend whose replies are read
// from raw JSON. OpenAI replies are decoded by go-openai and have none.
func ExtractorFor(kind string) (ResponseExtractor, error) {
	switch kind {
	case BackendOllama:
		return MessageContentExtractor{}, nil
	case BackendAnthropic:
		return ContentBlocksExtractor{}, nil
	default:
		return nil, fmt.Errorf("no response extractor for backend %q", kind)
	}
}
