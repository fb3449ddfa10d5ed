package analysis

import (
	"encoding/json"
	"errors"
	"fmt"

	"symptom-checker-server/internal/models"
)

var (
	ErrMissingConditions = errors.New("response is missing a possibleConditions array")
	ErrNoConditions      = errors.New("response contains no possible conditions")
	ErrInvalidUrgency    = errors.New("response has an invalid urgencyLevel")
)

// ParseAnalysis recovers an AnalysisResult from model output. Only the
// shape of the top level is checked here; per-condition checks are applied
// by the Analyzer according to its policy.
func ParseAnalysis(text string) (*models.AnalysisResult, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode response object: %w", err)
	}
	conditions, ok := fields["possibleConditions"]
	if !ok || len(conditions) == 0 || conditions[0] != '[' {
		return nil, ErrMissingConditions
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if !result.UrgencyLevel.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUrgency, result.UrgencyLevel)
	}
	return &result, nil
}
