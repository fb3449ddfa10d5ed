package analysis

import (
	"strconv"
	"strings"

	"symptom-checker-server/internal/models"
)

const promptPreamble = `You are a medical analysis system that ONLY outputs valid JSON. Based on symptoms, you identify possible conditions.

A patient presents with the following symptoms:
`

const promptSchema = `
You MUST respond with ONLY valid JSON in the exact format below, with no additional text, markdown formatting, or explanation:

{
  "possibleConditions": [
    {
      "id": "condition-id",
      "name": "Condition Name",
      "description": "Brief description of the condition",
      "likelihood": 0.7,
      "recommendedActions": [
        "Specific action item 1",
        "Specific action item 2"
      ]
    },
    {
      "id": "condition-id-2",
      "name": "Second Condition",
      "description": "Brief description",
      "likelihood": 0.5,
      "recommendedActions": ["Action item"]
    }
  ],
  "recommendations": [
    "General recommendation 1",
    "General recommendation 2"
  ],
  "urgencyLevel": "routine",
  "disclaimer": "Medical disclaimer about seeking professional advice"
}

IMPORTANT NOTES:
1. The urgencyLevel MUST be one of: "routine", "soon", or "urgent"
2. Include 1-3 possible conditions based on the symptoms
3. DO NOT include ANY text outside of the JSON structure
4. Ensure the JSON is valid with no trailing commas or syntax errors
5. If symptoms are severe, use "urgent" for urgencyLevel

Any response that is not valid JSON will be rejected.
`

// BuildPrompt renders the instruction sent to the provider. Symptoms are
// listed in the order given.
func BuildPrompt(symptoms []models.Symptom, age *float64, gender string, existingConditions ...string) string {
	var b strings.Builder
	b.WriteString(promptPreamble)

	for _, s := range symptoms {
		b.WriteString("- ")
		b.WriteString(s.Name)
		if s.Severity != nil {
			b.WriteString(" (severity: " + formatNumber(*s.Severity) + "/10)")
		}
		if s.Duration != nil && *s.Duration != "" {
			b.WriteString(" (duration: " + *s.Duration + ")")
		}
		b.WriteByte('\n')
	}

	if age != nil {
		b.WriteString("Patient age: " + formatNumber(*age) + "\n")
	}
	if gender != "" {
		b.WriteString("Patient gender: " + gender + "\n")
	}
	if len(existingConditions) > 0 {
		b.WriteString("Existing conditions: " + strings.Join(existingConditions, ", ") + "\n")
	}

	b.WriteString(promptSchema)
	return b.String()
}

// BuildRequestPrompt is BuildPrompt applied to a validated request.
func BuildRequestPrompt(req models.AnalyzeRequest) string {
	var existing []string
	if req.Context != nil {
		existing = req.Context.ExistingConditions
	}
	return BuildPrompt(req.Symptoms, req.Age(), req.Gender(), existing...)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
