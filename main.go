package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"symptom-checker-server/internal/analysis"
	"symptom-checker-server/internal/config"
	"symptom-checker-server/internal/evaluation"
	"symptom-checker-server/internal/handlers"
	"symptom-checker-server/internal/history"
	"symptom-checker-server/internal/logger"
	"symptom-checker-server/internal/middleware"
	"symptom-checker-server/internal/models"
	"symptom-checker-server/internal/routes"
	"symptom-checker-server/internal/session"
)

const maxBodyBytes = 1 << 20

func main() {
	// A missing .env is fine; the process environment still applies
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	appLog := logger.New(cfg.LogFilePath, cfg.Environment == "production")
	defer appLog.Sync()

	db, err := models.InitDB(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.Environment == "development",
	})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	sessions, closeSessions := openSessionStore(cfg, appLog)
	defer closeSessions()

	httpClient := analysis.NewHTTPClient(cfg.LLM.HTTPTimeoutDuration(), map[string]string{
		"HTTP-Referer": cfg.LLM.Referer,
		"X-Title":      cfg.LLM.Title,
	})
	var provider analysis.Provider
	switch cfg.LLM.Provider {
	case "anthropic":
		provider = analysis.NewAnthropicProvider(cfg.LLM.BaseURL, httpClient)
	default:
		provider = analysis.NewOpenRouterProvider(cfg.LLM.BaseURL, httpClient)
	}
	analyzer := analysis.NewAnalyzer(provider, analysis.Options{
		Completion: analysis.CompletionOptions{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		Timeout:         cfg.LLM.RequestTimeoutDuration(),
		ConditionPolicy: cfg.Analysis.ConditionPolicy,
	}, appLog)

	recorder := history.NewRecorder(db, cfg.Analysis.HistoryLimit)

	if cfg.EvalSchedule != "" {
		job := evaluation.NewJob(recorder, appLog, 0)
		if err := job.Start(cfg.EvalSchedule); err != nil {
			log.Fatalf("Error scheduling evaluation job: %v", err)
		}
		defer job.Stop()
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(appLog), middleware.BodyLimit(maxBodyBytes))

	corsConfig := cors.DefaultConfig()
	if cfg.Origin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.Origin}
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	creds := analysis.Credentials{APIKey: cfg.LLM.APIKeyFor()}
	routes.SetupRoutes(router, routes.Handlers{
		Health:   handlers.NewHealthHandler(cfg.Environment, creds.APIKey),
		Analyze:  handlers.NewAnalyzeHandler(analyzer, creds, recorder, cfg.Analysis.FallbackEnabled, appLog),
		Evaluate: handlers.NewEvaluateHandler(),
		History:  handlers.NewHistoryHandler(recorder),
		Auth:     handlers.NewAuthHandler(db, sessions, cfg.Auth, cfg.Environment == "production"),
	}, cfg.Auth.JWTSecret)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Must outlast the provider HTTP timeout
		WriteTimeout: cfg.LLM.HTTPTimeoutDuration() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	appLog.Info("SERVER", fmt.Sprintf("Server running on port %s", cfg.Port), map[string]interface{}{
		"environment": cfg.Environment,
		"provider":    provider.Name(),
		"model":       cfg.LLM.Model,
		"api_key_set": creds.Configured(),
	})
	waitForShutdown(server, appLog)
}

func openSessionStore(cfg *config.Config, appLog logger.Logger) (session.Store, func()) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(), func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := session.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		appLog.Warn("SESSION", "redis unavailable, using in-memory token store", map[string]interface{}{"error": err})
		return session.NewMemoryStore(), func() {}
	}
	return store, func() { _ = store.Close() }
}

func waitForShutdown(server *http.Server, appLog logger.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	appLog.Info("SERVER", "shutting down server...", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("SERVER", "graceful shutdown failed", map[string]interface{}{"error": err})
	}
}
