package analysis

import (
	"symptom-checker-server/internal/models"
)

// FallbackConfidence is attached to every degraded result.
const FallbackConfidence = 0.3

// FallbackResult is a best-effort result sent alongside an error.
type FallbackResult struct {
	Result     models.AnalysisResult `json:"result"`
	Confidence float64               `json:"confidence"`
	IsFallback bool                  `json:"isFallback"`
}

// ClassifySeverity buckets a symptom set by its mean severity. A symptom
// without a severity counts as 5.
func ClassifySeverity(symptoms []models.Symptom) models.Severity {
	if len(symptoms) == 0 {
		return models.SeverityMedium
	}
	total := 0.0
	for _, s := range symptoms {
		if s.Severity != nil {
			total += *s.Severity
		} else {
			total += 5
		}
	}
	mean := total / float64(len(symptoms))
	switch {
	case mean <= 3:
		return models.SeverityLow
	case mean <= 6:
		return models.SeverityMedium
	default:
		return models.SeverityHigh
	}
}

// BuildFallback derives a generic result from the symptom set when the
// provider could not produce one.
func BuildFallback(symptoms []models.Symptom) FallbackResult {
	urgency := models.UrgencySoon
	recommendations := []string{
		"Monitor your symptoms and note any changes",
		"Rest and stay hydrated",
		"Contact a healthcare provider if symptoms persist or worsen",
	}
	switch ClassifySeverity(symptoms) {
	case models.SeverityLow:
		urgency = models.UrgencyRoutine
	case models.SeverityHigh:
		urgency = models.UrgencyUrgent
		recommendations = append([]string{"Seek medical attention promptly"}, recommendations...)
	}

	names := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		names = append(names, s.Name)
	}

	return FallbackResult{
		Result: models.AnalysisResult{
			PossibleConditions: []models.Condition{{
				ID:          "unclassified-symptoms",
				Name:        "Unclassified symptoms",
				Description: "Automated analysis was unavailable for: " + joinNames(names),
				Likelihood:  FallbackConfidence,
				RecommendedActions: []string{
					"Describe these symptoms to a healthcare professional",
				},
			}},
			Recommendations: recommendations,
			UrgencyLevel:    urgency,
			Disclaimer:      "Automated analysis is temporarily unavailable. This guidance is generic and is not medical advice; consult a healthcare professional.",
		},
		Confidence: FallbackConfidence,
		IsFallback: true,
	}
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "the reported symptoms"
	case 1:
		return names[0]
	}
	out := names[0]
	for _, n := range names[1 : len(names)-1] {
		out += ", " + n
	}
	return out + " and " + names[len(names)-1]
}
