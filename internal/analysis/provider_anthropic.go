package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider calls the Anthropic Messages API. It has no JSON mode,
// so output shape relies on the prompt alone.
type AnthropicProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewAnthropicProvider(baseURL string, httpClient *http.Client) *AnthropicProvider {
	return &AnthropicProvider{baseURL: baseURL, httpClient: httpClient}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, creds Credentials, prompt string, opts CompletionOptions) (string, error) {
	reqOpts := []option.RequestOption{option.WithAPIKey(creds.APIKey)}
	if p.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(p.httpClient))
	}
	client := anthropic.NewClient(reqOpts...)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(opts.Model),
		MaxTokens:   int64(opts.MaxTokens),
		Temperature: anthropic.Float(float64(opts.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &ProviderError{
				Provider: p.Name(),
				Status:   apiErr.StatusCode,
				Message:  apiErr.Error(),
				Details:  rawDetails(apiErr.RawJSON()),
			}
		}
		return "", err
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", ErrNoContent
}

// rawDetails decodes an error body, keeping it as text when it is not a
// JSON object.
func rawDetails(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var details map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return map[string]interface{}{"body": raw}
	}
	return details
}
