package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"symptom-checker-server/internal/middleware"
	"symptom-checker-server/internal/models"
	"symptom-checker-server/internal/utils"
)

// HistoryStore is the read side of the symptom-check log.
type HistoryStore interface {
	List(ctx context.Context, userID string) ([]models.SymptomCheck, error)
	Get(ctx context.Context, id string) (*models.SymptomCheck, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// HistoryHandler exposes the caller's past symptom checks.
type HistoryHandler struct {
	Store HistoryStore
}

func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{Store: store}
}

func callerID(c *gin.Context) string {
	if id, ok := middleware.GetUserIDFromContext(c); ok && id != "" {
		return id
	}
	return models.LocalUserID
}

// List returns the caller's checks, newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	checks, err := h.Store.List(c.Request.Context(), callerID(c))
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch history: "+err.Error())
		return
	}
	if checks == nil {
		checks = []models.SymptomCheck{}
	}
	utils.Success(c, "History fetched successfully", checks)
}

// Get returns one of the caller's checks.
func (h *HistoryHandler) Get(c *gin.Context) {
	check, err := h.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch symptom check: "+err.Error())
		return
	}
	// Other users' checks are reported as missing.
	if check == nil || check.UserID != callerID(c) {
		utils.NotFound(c, "Symptom check not found")
		return
	}
	utils.Success(c, "Symptom check fetched successfully", check)
}

// Clear deletes the caller's whole history.
func (h *HistoryHandler) Clear(c *gin.Context) {
	n, err := h.Store.DeleteByUser(c.Request.Context(), callerID(c))
	if err != nil {
		utils.InternalServerError(c, "Failed to clear history: "+err.Error())
		return
	}
	utils.Success(c, "History cleared", gin.H{"deleted": n})
}
