package analysis

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenRouterProvider calls an OpenAI-compatible chat completion API,
// OpenRouter by default.
type OpenRouterProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenRouterProvider builds a provider against baseURL using httpClient
// for transport and timeouts.
func NewOpenRouterProvider(baseURL string, httpClient *http.Client) *OpenRouterProvider {
	return &OpenRouterProvider{baseURL: baseURL, httpClient: httpClient}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) Complete(ctx context.Context, creds Credentials, prompt string, opts CompletionOptions) (string, error) {
	cfg := openai.DefaultConfig(creds.APIKey)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", p.translate(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoContent
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenRouterProvider) translate(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider: p.Name(),
			Status:   apiErr.HTTPStatusCode,
			Message:  apiErr.Message,
			Details:  apiErrorDetails(apiErr),
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &ProviderError{Provider: p.Name(), Status: reqErr.HTTPStatusCode, Message: msg}
	}
	return err
}

func apiErrorDetails(e *openai.APIError) map[string]interface{} {
	details := map[string]interface{}{"message": e.Message}
	if e.Code != nil {
		details["code"] = e.Code
	}
	if e.Type != "" {
		details["type"] = e.Type
	}
	if e.Param != nil {
		details["param"] = *e.Param
	}
	return details
}
