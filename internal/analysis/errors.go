package analysis

import (
	"net/http"

	"symptom-checker-server/internal/models"
)

// ErrorKind classifies why an analysis did not produce a result.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindProvider      ErrorKind = "provider"
	KindTimeout       ErrorKind = "timeout"
	KindNetwork       ErrorKind = "network"
	KindParse         ErrorKind = "parse"
)

// rawLimit bounds the model output echoed back in a parse failure.
const rawLimit = 300

// ErrorResult is the failure side of an Outcome.
type ErrorResult struct {
	Kind    ErrorKind   `json:"kind"`
	Message string      `json:"error"`
	Status  int         `json:"status"`
	Raw     string      `json:"raw,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HTTPStatus is the status to answer with. A network failure has no
// upstream status and is reported as a bad gateway.
func (e *ErrorResult) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusBadGateway
	}
	return e.Status
}

// Outcome is either a Result or a Failure, never both.
type Outcome struct {
	Result  *models.AnalysisResult
	Failure *ErrorResult
}

// OK reports whether the outcome carries a result.
func (o Outcome) OK() bool {
	return o.Result != nil
}

func success(r *models.AnalysisResult) Outcome {
	return Outcome{Result: r}
}

func failure(kind ErrorKind, status int, message string) Outcome {
	return Outcome{Failure: &ErrorResult{Kind: kind, Status: status, Message: message}}
}

func parseFailure(message, raw string) Outcome {
	o := failure(KindParse, http.StatusBadGateway, message)
	o.Failure.Raw = truncate(raw, rawLimit)
	return o
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
