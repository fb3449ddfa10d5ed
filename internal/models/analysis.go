package models

// UrgencyLevel is the three-valued triage signal attached to every result
type UrgencyLevel string

const (
	UrgencyRoutine UrgencyLevel = "routine"
	UrgencySoon    UrgencyLevel = "soon"
	UrgencyUrgent  UrgencyLevel = "urgent"
)

// Valid reports whether u is one of the three known levels.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyRoutine, UrgencySoon, UrgencyUrgent:
		return true
	}
	return false
}

// Symptom is a single user-reported symptom
type Symptom struct {
	Name     string   `json:"name" validate:"required"`
	Severity *float64 `json:"severity,omitempty" validate:"omitempty,min=0,max=10"`
	Duration *string  `json:"duration,omitempty"`
}

// PatientContext is optional demographic information sent with a request
type PatientContext struct {
	Age                *float64 `json:"age,omitempty" validate:"omitempty,min=0,max=120"`
	Gender             string   `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	ExistingConditions []string `json:"existingConditions,omitempty"`
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Symptoms []Symptom       `json:"symptoms" validate:"required,min=1,dive"`
	Context  *PatientContext `json:"context,omitempty"`
}

// Age returns the patient age, if given.
func (r AnalyzeRequest) Age() *float64 {
	if r.Context == nil {
		return nil
	}
	return r.Context.Age
}

// Gender returns the patient gender, or "" when absent.
func (r AnalyzeRequest) Gender() string {
	if r.Context == nil {
		return ""
	}
	return r.Context.Gender
}

// Condition is a possible diagnosis produced by the model
type Condition struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Likelihood         float64  `json:"likelihood"`
	RecommendedActions []string `json:"recommendedActions"`
	ICD10Code          string   `json:"icd10Code,omitempty"`
}

// Wellformed reports whether the condition carries an id, a name and a
// likelihood inside [0,1].
func (c Condition) Wellformed() bool {
	return c.ID != "" && c.Name != "" && c.Likelihood >= 0 && c.Likelihood <= 1
}

// AnalysisResult is the structured outcome of a symptom analysis
type AnalysisResult struct {
	PossibleConditions []Condition  `json:"possibleConditions"`
	Recommendations    []string     `json:"recommendations"`
	UrgencyLevel       UrgencyLevel `json:"urgencyLevel"`
	Disclaimer         string       `json:"disclaimer"`
}

// MaxLikelihood returns the highest condition likelihood clamped to [0,1].
func (r AnalysisResult) MaxLikelihood() float64 {
	best := 0.0
	for _, c := range r.PossibleConditions {
		if c.Likelihood > best {
			best = c.Likelihood
		}
	}
	if best > 1 {
		return 1
	}
	return best
}
