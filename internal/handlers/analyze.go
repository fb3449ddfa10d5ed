package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"symptom-checker-server/internal/analysis"
	"symptom-checker-server/internal/history"
	"symptom-checker-server/internal/logger"
	"symptom-checker-server/internal/middleware"
	"symptom-checker-server/internal/models"
	"symptom-checker-server/internal/utils"
)

// Analyzer turns a raw request body into an analysis outcome.
type Analyzer interface {
	AnalyzeBody(ctx context.Context, creds analysis.Credentials, body []byte) (models.AnalyzeRequest, analysis.Outcome)
}

// CheckRecorder persists completed checks.
type CheckRecorder interface {
	Record(ctx context.Context, check *models.SymptomCheck) error
}

// AnalyzeHandler serves POST /api/analyze.
type AnalyzeHandler struct {
	Analyzer Analyzer
	Creds    analysis.Credentials
	History  CheckRecorder
	Fallback bool
	Log      logger.Logger
}

func NewAnalyzeHandler(a Analyzer, creds analysis.Credentials, rec CheckRecorder, fallback bool, log logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{Analyzer: a, Creds: creds, History: rec, Fallback: fallback, Log: log}
}

// Analyze validates the symptoms, runs the analysis and records the check.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.PlainError(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return
		}
		utils.PlainError(c, http.StatusBadRequest, "Could not read request body", nil)
		return
	}

	req, out := h.Analyzer.AnalyzeBody(c.Request.Context(), h.Creds, body)
	userID, _ := middleware.GetUserIDFromContext(c)

	if out.OK() {
		h.record(c.Request.Context(), history.NewCheck(userID, req.Symptoms, *out.Result, false))
		c.JSON(http.StatusOK, out.Result)
		return
	}

	f := out.Failure
	extra := gin.H{}
	if f.Details != nil {
		extra["details"] = f.Details
	}
	if f.Kind == analysis.KindValidation || !h.Fallback {
		utils.PlainError(c, f.HTTPStatus(), f.Message, extra)
		return
	}

	fb := analysis.BuildFallback(req.Symptoms)
	h.record(c.Request.Context(), history.NewCheck(userID, req.Symptoms, fb.Result, true))
	extra["fallbackResult"] = fb
	utils.PlainError(c, f.HTTPStatus(), f.Message, extra)
}

// record stores a check. The user still gets their result when this fails.
func (h *AnalyzeHandler) record(ctx context.Context, check *models.SymptomCheck) {
	if h.History == nil {
		return
	}
	if err := h.History.Record(context.WithoutCancel(ctx), check); err != nil {
		h.Log.Warn("HISTORY", "failed to record symptom check", map[string]interface{}{
			"user_id": check.UserID,
			"error":   err,
		})
	}
}
