package ai

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
)

// OpenAIAPIKeyEnv names the environment variable holding the key.
const OpenAIAPIKeyEnv = "OPENAI_API_KEY"

// OpenAIProvider talks to an OpenAI-compatible chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	host   string
	model  string
}

// NewOpenAIProvider creates an OpenAI provider. Host is the API base URL,
// for example https://api.openai.com/v1.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewMissingAPIKeyError("OpenAI", OpenAIAPIKeyEnv)
	}

	host := NormalizeHost(cfg.Host)
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if host != "" {
		clientConfig.BaseURL = host
	}
	clientConfig.HTTPClient = newHTTPClient(cfg.Timeout)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		host:   clientConfig.BaseURL,
		model:  cfg.Model,
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "OpenAI" }

// Endpoint implements Provider.
func (p *OpenAIProvider) Endpoint() string { return p.host + "/chat/completions" }

// Chat implements Provider.
func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Options.Temperature,
		TopP:        req.Options.TopP,
		MaxTokens:   req.Options.MaxTokens,
	}

	// go-openai sets its own request headers, so the id is only logged here.
	apperrors.LogAPIRequest(p.Name(), p.Endpoint(), model, "", req.PromptLength())
	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", p.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewMalformedResponseError(p.Name(), ErrMalformedResponse)
	}
	text := resp.Choices[0].Message.Content
	apperrors.LogAPIResponse(p.Name(), 200, len(text), time.Since(start))
	return text, nil
}

func (p *OpenAIProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apperrors.NewBackendError(p.Name(), apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := reqErr.HTTPStatus
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return apperrors.NewBackendError(p.Name(), reqErr.HTTPStatusCode, body)
	}
	return classifyTransportError(p.Name(), p.host, err)
}
