package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"symptom-checker-server/internal/evaluation"
)

// EvaluateRequest is the body of POST /api/evaluate/llm.
type EvaluateRequest struct {
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
	Reference string `json:"reference,omitempty"`
}

type evaluationMeta struct {
	Timestamp         string `json:"timestamp"`
	EvaluationService string `json:"evaluation_service"`
	Version           string `json:"version"`
}

// EvaluateResponse carries the scores and where they came from.
type EvaluateResponse struct {
	Metrics evaluation.Metrics `json:"metrics"`
	Meta    evaluationMeta     `json:"meta"`
}

type EvaluateHandler struct {
	now func() time.Time
}

func NewEvaluateHandler() *EvaluateHandler {
	return &EvaluateHandler{now: time.Now}
}

// EvaluateLLM scores a prompt/response pair.
func (h *EvaluateHandler) EvaluateLLM(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		evaluationFailed(c, "Invalid request payload: "+err.Error())
		return
	}
	switch {
	case req.Prompt == "":
		evaluationFailed(c, "Prompt is required")
		return
	case req.Response == "":
		evaluationFailed(c, "Response is required")
		return
	}

	c.JSON(http.StatusOK, EvaluateResponse{
		Metrics: evaluation.Score(req.Prompt, req.Response, req.Reference),
		Meta: evaluationMeta{
			Timestamp:         h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			EvaluationService: "deepeval",
			Version:           "1.0.0",
		},
	})
}

func evaluationFailed(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "status": "failed"})
}
