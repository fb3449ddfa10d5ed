package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Credentials are passed with every call instead of living in a shared client.
type Credentials struct {
	APIKey string
}

// Configured reports whether a provider key is present.
func (c Credentials) Configured() bool {
	return c.APIKey != ""
}

// Completion parameters shared by every provider.
type CompletionOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Provider turns a prompt into model text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, creds Credentials, prompt string, opts CompletionOptions) (string, error)
}

// ErrNoContent is returned by a provider whose reply carried no message.
var ErrNoContent = errors.New("provider returned no content")

// ProviderError is a failure reported by the provider API itself.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	// Details is the error body sent by the API, when it sent one.
	Details map[string]interface{}
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Message)
}

// NewHTTPClient builds the outbound client shared by providers. headers
// are added to every request.
func NewHTTPClient(timeout time.Duration, headers map[string]string) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
	}
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}
