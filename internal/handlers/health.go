package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the liveness and diagnostic endpoints.
type HealthHandler struct {
	Environment string
	APIKey      string
}

func NewHealthHandler(environment, apiKey string) *HealthHandler {
	return &HealthHandler{Environment: environment, APIKey: apiKey}
}

// Health is a bare liveness check.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// Test reports whether a provider key is configured, showing only its prefix.
func (h *HealthHandler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "API is working!",
		"env": gin.H{
			"nodeEnv":          h.Environment,
			"apiKeyConfigured": h.APIKey != "",
			"apiKeyFormat":     keyPrefix(h.APIKey),
		},
	})
}

func keyPrefix(key string) string {
	if key == "" {
		return "Not configured"
	}
	if len(key) <= 6 {
		return "..."
	}
	return key[:6] + "..."
}
