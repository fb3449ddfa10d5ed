package analysis

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"symptom-checker-server/internal/config"
	"symptom-checker-server/internal/logger"
	"symptom-checker-server/internal/models"
)

const logModule = "ANALYSIS"

// Options tune an Analyzer.
type Options struct {
	Completion      CompletionOptions
	Timeout         time.Duration
	ConditionPolicy string
}

// Analyzer runs the validate, prompt, call and parse pipeline. Analyze
// never panics or returns an error; every call resolves to an Outcome.
type Analyzer struct {
	provider Provider
	opts     Options
	log      logger.Logger
}

// NewAnalyzer returns an Analyzer calling provider.
func NewAnalyzer(provider Provider, opts Options, log logger.Logger) *Analyzer {
	if opts.ConditionPolicy == "" {
		opts.ConditionPolicy = config.PolicyLenient
	}
	return &Analyzer{provider: provider, opts: opts, log: log}
}

// AnalyzeBody validates a raw request body and analyzes it.
func (a *Analyzer) AnalyzeBody(ctx context.Context, creds Credentials, body []byte) (models.AnalyzeRequest, Outcome) {
	req, verr := ValidateRequest(body)
	if verr != nil {
		return req, Outcome{Failure: verr.Result()}
	}
	return req, a.Analyze(ctx, creds, req)
}

// Analyze sends a validated request to the provider.
func (a *Analyzer) Analyze(ctx context.Context, creds Credentials, req models.AnalyzeRequest) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error(logModule, "analysis panicked", map[string]interface{}{"panic": r})
			out = failure(KindProvider, http.StatusInternalServerError, "Analysis failed unexpectedly")
		}
	}()

	if !creds.Configured() {
		return failure(KindConfiguration, http.StatusInternalServerError, a.label()+" API key not configured")
	}

	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	prompt := BuildRequestPrompt(req)
	started := time.Now()
	content, err := a.provider.Complete(ctx, creds, prompt, a.opts.Completion)
	if err != nil {
		out = a.classify(err)
		a.log.Warn(logModule, "provider call failed", map[string]interface{}{
			"provider": a.provider.Name(),
			"kind":     string(out.Failure.Kind),
			"status":   out.Failure.Status,
			"error":    err,
		})
		return out
	}
	a.log.Debug(logModule, "provider call completed", map[string]interface{}{
		"provider": a.provider.Name(),
		"duration": time.Since(started).String(),
		"chars":    len(content),
	})

	if strings.TrimSpace(content) == "" {
		return failure(KindProvider, http.StatusBadGateway, a.label()+" returned empty content")
	}
	return a.interpret(content)
}

func (a *Analyzer) interpret(content string) Outcome {
	result, err := ParseAnalysis(content)
	switch {
	case errors.Is(err, ErrMissingConditions):
		return parseFailure("Invalid response format from "+a.label(), content)
	case errors.Is(err, ErrInvalidUrgency):
		return parseFailure("Invalid urgency level in "+a.label()+" response", content)
	case err != nil:
		return parseFailure("Failed to parse JSON from "+a.label(), content)
	}

	switch a.opts.ConditionPolicy {
	case config.PolicyFilter:
		kept := result.PossibleConditions[:0]
		for _, c := range result.PossibleConditions {
			if c.Wellformed() {
				kept = append(kept, c)
			}
		}
		result.PossibleConditions = kept
	case config.PolicyStrict:
		for _, c := range result.PossibleConditions {
			if !c.Wellformed() {
				return parseFailure("Malformed condition in "+a.label()+" response", content)
			}
		}
	}

	if len(result.PossibleConditions) == 0 {
		return parseFailure(a.label()+" response contains no possible conditions", content)
	}
	return success(result)
}

func (a *Analyzer) label() string {
	if a.provider.Name() == "anthropic" {
		return "Anthropic"
	}
	return "OpenRouter"
}

// classify maps a provider call error onto the failure taxonomy.
func (a *Analyzer) classify(err error) Outcome {
	if errors.Is(err, ErrNoContent) {
		return failure(KindProvider, http.StatusBadGateway, "No content received from "+a.label())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return failure(KindTimeout, http.StatusRequestTimeout, "Request to "+a.label()+" timed out")
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		status := perr.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		out := failure(KindProvider, status, perr.Message)
		if perr.Details != nil {
			out.Failure.Details = perr.Details
		}
		return out
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return failure(KindTimeout, http.StatusRequestTimeout, "Request to "+a.label()+" timed out")
		}
		return failure(KindNetwork, 0, "Could not reach "+a.label()+": "+err.Error())
	}
	return failure(KindProvider, http.StatusInternalServerError, err.Error())
}
