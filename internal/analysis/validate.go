package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"symptom-checker-server/internal/models"
	"symptom-checker-server/internal/utils"
)

// ValidationError names the first request rule that was violated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Result converts the validation failure into an analysis failure.
func (e *ValidationError) Result() *ErrorResult {
	return &ErrorResult{Kind: KindValidation, Status: http.StatusBadRequest, Message: e.Message}
}

// Rules in the order they are checked.
var rules = []ValidationError{
	{Field: "body", Message: "Payload must be an object"},
	{Field: "symptoms", Message: "At least one symptom is required"},
	{Field: "name", Message: "Each symptom must have a name"},
	{Field: "severity", Message: "Severity must be a number between 0 and 10"},
	{Field: "duration", Message: "Duration must be a string"},
	{Field: "age", Message: "Age must be a number between 0 and 120"},
	{Field: "gender", Message: "Gender must be male, female, or other"},
	{Field: "context", Message: "Context must be an object"},
	{Field: "existingConditions", Message: "Existing conditions must be a list of strings"},
}

func ruleIndex(field string) (int, bool) {
	for i, r := range rules {
		if r.Field == field {
			return i, true
		}
	}
	return 0, false
}

// ValidateRequest decodes a raw request body into an AnalyzeRequest.
// When several rules are broken the earliest rule is reported.
func ValidateRequest(body []byte) (models.AnalyzeRequest, *ValidationError) {
	var req models.AnalyzeRequest

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return req, violation(0)
	}

	first := typeMismatch(trimmed)
	// Type mismatches were found above; the partial decode still feeds
	// the value rules below.
	_ = json.Unmarshal(trimmed, &req)

	unknown := false
	if err := utils.Validate(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return models.AnalyzeRequest{}, violation(0)
		}
		for _, fe := range fieldErrs {
			i, ok := ruleIndex(fe.Field())
			if !ok {
				unknown = true
				continue
			}
			if i < first {
				first = i
			}
		}
	}

	if first == len(rules) && unknown {
		first = 0
	}
	if first < len(rules) {
		return models.AnalyzeRequest{}, violation(first)
	}
	return req, nil
}

func violation(i int) *ValidationError {
	v := rules[i]
	return &v
}

// typeMismatch returns the index of the earliest rule broken by a value of
// the wrong JSON type, or len(rules) when all types fit. Every field is
// inspected so the order of keys in the body does not matter.
func typeMismatch(body []byte) int {
	first := len(rules)
	flag := func(field string) {
		if i, _ := ruleIndex(field); i < first {
			first = i
		}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return 0
	}

	if raw, ok := present(top, "symptoms"); ok {
		var items []json.RawMessage
		if jsonKind(raw) != '[' || json.Unmarshal(raw, &items) != nil {
			flag("symptoms")
		}
		for _, item := range items {
			var fields map[string]json.RawMessage
			if jsonKind(item) != '{' || json.Unmarshal(item, &fields) != nil {
				flag("name")
				continue
			}
			checkKind(fields, "name", '"', flag)
			checkKind(fields, "severity", '0', flag)
			checkKind(fields, "duration", '"', flag)
		}
	}

	if raw, ok := present(top, "context"); ok {
		var fields map[string]json.RawMessage
		if jsonKind(raw) != '{' || json.Unmarshal(raw, &fields) != nil {
			flag("context")
			return first
		}
		checkKind(fields, "age", '0', flag)
		checkKind(fields, "gender", '"', flag)
		if list, ok := present(fields, "existingConditions"); ok {
			var items []json.RawMessage
			if jsonKind(list) != '[' || json.Unmarshal(list, &items) != nil {
				flag("existingConditions")
			}
			for _, item := range items {
				if jsonKind(item) != '"' {
					flag("existingConditions")
					break
				}
			}
		}
	}
	return first
}

// present returns a field unless it is absent or null.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || jsonKind(raw) == 'n' {
		return nil, false
	}
	return raw, true
}

func checkKind(fields map[string]json.RawMessage, key string, want byte, flag func(string)) {
	if raw, ok := present(fields, key); ok && jsonKind(raw) != want {
		flag(key)
	}
}

// jsonKind reduces a raw value to its leading byte, with every number
// reported as '0'.
func jsonKind(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	switch c := raw[0]; {
	case c == '-' || (c >= '0' && c <= '9'):
		return '0'
	default:
		return c
	}
}
