package utils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symptom-checker-server/internal/config"
	"symptom-checker-server/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", JWTExpirationMinutes: 5}
	user := &models.User{BaseModel: models.BaseModel{ID: "user-1"}}

	access, refresh, err := GenerateTokens(user, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, refresh)

	claims, err := ValidateToken(access, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = ValidateToken(access, "other-secret")
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", JWTExpirationMinutes: -1}
	access, _, err := GenerateTokens(&models.User{BaseModel: models.BaseModel{ID: "u"}}, cfg)
	require.NoError(t, err)

	_, err = ValidateToken(access, "secret")
	assert.Error(t, err)
}

func TestValidateUsesJSONNames(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
	}
	err := Validate(payload{Email: "nope"})
	require.Error(t, err)
	assert.Contains(t, FormatValidationError(err), "email failed on 'email'")
}

func TestPlainErrorMergesExtra(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	PlainError(c, http.StatusBadGateway, "boom", gin.H{"fallbackResult": gin.H{"confidence": 0.3}})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"boom","fallbackResult":{"confidence":0.3}}`, w.Body.String())
}

func TestBindAndValidateRejectsBadBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":""}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var body struct {
		Email string `json:"email" validate:"required"`
	}
	assert.False(t, BindAndValidate(c, &body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorEnvelopeSummaries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		send    func(*gin.Context, string)
		status  int
		summary string
	}{
		{BadRequest, http.StatusBadRequest, "Request rejected"},
		{Unauthorized, http.StatusUnauthorized, "Authentication required"},
		{NotFound, http.StatusNotFound, "Resource not found"},
		{InternalServerError, http.StatusInternalServerError, "Server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		tc.send(c, "details here")

		assert.Equal(t, tc.status, w.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"status":%d,"message":%q,"error":"details here"}`, tc.status, tc.summary), w.Body.String())
	}
}

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, "History cleared", gin.H{"deleted": 3})

	assert.JSONEq(t, `{"status":200,"message":"History cleared","data":{"deleted":3}}`, w.Body.String())
}
