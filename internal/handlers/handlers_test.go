package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"symptom-checker-server/internal/analysis"
	"symptom-checker-server/internal/config"
	"symptom-checker-server/internal/history"
	"symptom-checker-server/internal/logger"
	"symptom-checker-server/internal/middleware"
	"symptom-checker-server/internal/models"
	"symptom-checker-server/internal/session"
)

const (
	testSecret    = "test-secret"
	validResponse = `{"possibleConditions":[{"id":"flu","name":"Flu","description":"viral","likelihood":0.7,"recommendedActions":["rest"]}],"recommendations":["hydrate"],"urgencyLevel":"soon","disclaimer":"see a doctor"}`
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	content string
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return "openrouter" }

func (s *stubProvider) Complete(context.Context, analysis.Credentials, string, analysis.CompletionOptions) (string, error) {
	s.calls++
	return s.content, s.err
}

type captureRecorder struct {
	checks []*models.SymptomCheck
	err    error
}

func (r *captureRecorder) Record(_ context.Context, check *models.SymptomCheck) error {
	r.checks = append(r.checks, check)
	return r.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "handlers.db"),
	})
	require.NoError(t, err)
	return db
}

func analyzeRouter(p analysis.Provider, rec CheckRecorder, fallback bool) *gin.Engine {
	a := analysis.NewAnalyzer(p, analysis.Options{Timeout: time.Second}, logger.NewNop())
	h := NewAnalyzeHandler(a, analysis.Credentials{APIKey: "sk-or-test"}, rec, fallback, logger.NewNop())

	router := gin.New()
	router.POST("/api/analyze", middleware.OptionalAuthMiddleware(testSecret), h.Analyze)
	return router
}

func doJSON(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const headacheBody = `{"symptoms":[{"name":"headache","severity":8}]}`

func TestAnalyzeReturnsResultAndRecordsCheck(t *testing.T) {
	p := &stubProvider{content: validResponse}
	rec := &captureRecorder{}

	w := doJSON(analyzeRouter(p, rec, true), http.MethodPost, "/api/analyze", headacheBody, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.UrgencySoon, result.UrgencyLevel)
	require.Len(t, result.PossibleConditions, 1)
	assert.Equal(t, "Flu", result.PossibleConditions[0].Name)

	require.Len(t, rec.checks, 1)
	assert.Equal(t, models.LocalUserID, rec.checks[0].UserID)
	assert.False(t, rec.checks[0].Metadata.IsFallback)
	assert.InDelta(t, 0.7, rec.checks[0].Metadata.Confidence, 1e-9)
}

func TestAnalyzeValidationErrorSkipsProvider(t *testing.T) {
	p := &stubProvider{content: validResponse}
	rec := &captureRecorder{}

	w := doJSON(analyzeRouter(p, rec, true), http.MethodPost, "/api/analyze", `{"symptoms":[]}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "At least one symptom is required", body["error"])
	assert.NotContains(t, body, "fallbackResult")
	assert.Zero(t, p.calls)
	assert.Empty(t, rec.checks)
}

func TestAnalyzeProviderErrorAttachesFallback(t *testing.T) {
	p := &stubProvider{err: &analysis.ProviderError{
		Provider: "openrouter",
		Status:   http.StatusTooManyRequests,
		Message:  "rate limited",
		Details:  map[string]interface{}{"code": "rate_limit"},
	}}
	rec := &captureRecorder{}

	w := doJSON(analyzeRouter(p, rec, true), http.MethodPost, "/api/analyze", headacheBody, nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["error"])
	fb, ok := body["fallbackResult"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, fb["isFallback"])
	assert.Equal(t, map[string]interface{}{"code": "rate_limit"}, body["details"])

	require.Len(t, rec.checks, 1)
	assert.True(t, rec.checks[0].Metadata.IsFallback)
	assert.Equal(t, models.SeverityHigh, rec.checks[0].Metadata.Severity)
}

func TestAnalyzeNetworkFailureIsBadGateway(t *testing.T) {
	p := &stubProvider{err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}

	w := doJSON(analyzeRouter(p, nil, false), http.MethodPost, "/api/analyze", headacheBody, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decode(t, w)
	assert.NotContains(t, body, "fallbackResult")
	assert.NotContains(t, body, "details")
}

func TestAnalyzeHistoryFailureStillAnswers(t *testing.T) {
	p := &stubProvider{content: validResponse}
	rec := &captureRecorder{err: errors.New("disk full")}

	w := doJSON(analyzeRouter(p, rec, true), http.MethodPost, "/api/analyze", headacheBody, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, rec.checks, 1)
}

func TestAnalyzeRejectsInvalidToken(t *testing.T) {
	p := &stubProvider{content: validResponse}

	w := doJSON(analyzeRouter(p, nil, true), http.MethodPost, "/api/analyze", headacheBody,
		map[string]string{"Authorization": "Bearer not-a-token"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, p.calls)
}

func TestEvaluateLLM(t *testing.T) {
	h := NewEvaluateHandler()
	h.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	router := gin.New()
	router.POST("/api/evaluate/llm", h.EvaluateLLM)

	w := doJSON(router, http.MethodPost, "/api/evaluate/llm", `{"response":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Prompt is required", decode(t, w)["error"])
	assert.Equal(t, "failed", decode(t, w)["status"])

	w = doJSON(router, http.MethodPost, "/api/evaluate/llm", `{"prompt":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Response is required", decode(t, w)["error"])

	w = doJSON(router, http.MethodPost, "/api/evaluate/llm",
		`{"prompt":"I have a headache","response":"You may have a tension headache. Consult a doctor."}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, "2026-03-04T05:06:07.000Z", meta["timestamp"])
	assert.Equal(t, "deepeval", meta["evaluation_service"])
	assert.Equal(t, "1.0.0", meta["version"])
	metrics := body["metrics"].(map[string]interface{})
	for _, k := range []string{"relevance", "faithfulness", "toxicity", "bias"} {
		v, ok := metrics[k].(float64)
		require.True(t, ok, k)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestHealthAndTest(t *testing.T) {
	router := gin.New()
	h := NewHealthHandler("development", "sk-or-v1-abcdef")
	router.GET("/health", h.Health)
	router.GET("/api/test", h.Test)

	w := doJSON(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UP", decode(t, w)["status"])

	w = doJSON(router, http.MethodGet, "/api/test", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "API is working!", body["message"])
	env := body["env"].(map[string]interface{})
	assert.Equal(t, "development", env["nodeEnv"])
	assert.Equal(t, true, env["apiKeyConfigured"])
	assert.Equal(t, "sk-or-...", env["apiKeyFormat"])
	assert.NotContains(t, w.Body.String(), "abcdef")
}

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "Not configured", keyPrefix(""))
	assert.Equal(t, "...", keyPrefix("short"))
	assert.Equal(t, "abcdef...", keyPrefix("abcdefghij"))
}

func TestHistoryIsScopedToCaller(t *testing.T) {
	rec := history.NewRecorder(newTestDB(t), history.DefaultLimit)
	ctx := context.Background()
	result := models.AnalysisResult{
		PossibleConditions: []models.Condition{{ID: "c", Name: "Cold", Description: "d", Likelihood: 0.5, RecommendedActions: []string{"rest"}}},
		UrgencyLevel:       models.UrgencyRoutine,
	}
	mine := history.NewCheck("", []models.Symptom{{Name: "cough"}}, result, false)
	theirs := history.NewCheck("someone-else", []models.Symptom{{Name: "fever"}}, result, false)
	require.NoError(t, rec.Record(ctx, mine))
	require.NoError(t, rec.Record(ctx, theirs))

	h := NewHistoryHandler(rec)
	router := gin.New()
	group := router.Group("/api/history", middleware.OptionalAuthMiddleware(testSecret))
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.DELETE("", h.Clear)

	w := doJSON(router, http.MethodGet, "/api/history", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, mine.ID, data[0].(map[string]interface{})["id"])

	w = doJSON(router, http.MethodGet, "/api/history/"+mine.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/history/"+theirs.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/history", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["data"].(map[string]interface{})["deleted"])

	w = doJSON(router, http.MethodGet, "/api/history", "", nil)
	assert.Empty(t, decode(t, w)["data"])

	left, err := rec.List(ctx, "someone-else")
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func authRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := config.AuthConfig{JWTSecret: testSecret, JWTExpirationMinutes: 5, RefreshTTLHours: 1}
	h := NewAuthHandler(newTestDB(t), session.NewMemoryStore(), cfg, false)

	router := gin.New()
	public := router.Group("/api/auth")
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/refresh", h.RefreshToken)
	private := router.Group("/api/auth", middleware.AuthMiddleware(testSecret))
	private.POST("/logout", h.Logout)
	private.GET("/profile", h.GetProfile)
	private.PUT("/profile", h.UpdateProfile)
	return router
}

func tokensFrom(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	data := decode(t, w)["data"].(map[string]interface{})
	return data["accessToken"].(string), data["refreshToken"].(string)
}

func TestAuthFlow(t *testing.T) {
	router := authRouter(t)

	w := doJSON(router, http.MethodPost, "/api/auth/register",
		`{"email":"ana@example.com","password":"password123","displayName":"Ana","age":34,"gender":"female"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password123")

	w = doJSON(router, http.MethodPost, "/api/auth/register",
		`{"email":"ana@example.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"wrong-pass"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"password123"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	access, refresh := tokensFrom(t, w)
	bearer := map[string]string{"Authorization": "Bearer " + access}

	w = doJSON(router, http.MethodGet, "/api/auth/profile", "", bearer)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "ana@example.com", profile["email"])

	w = doJSON(router, http.MethodPut, "/api/auth/profile", `{"displayName":"Ana M."}`, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana M.", decode(t, w)["data"].(map[string]interface{})["displayName"])

	w = doJSON(router, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+refresh+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, rotated := tokensFrom(t, w)
	assert.NotEqual(t, refresh, rotated)

	// The old refresh token is single use
	w = doJSON(router, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+refresh+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/logout", `{"refreshToken":"`+rotated+`"}`, bearer)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+rotated+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthProfileRequiresToken(t *testing.T) {
	w := doJSON(authRouter(t), http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
