package main

import (
	"log"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_relay/internal/config"
	"github.com/Vovarama1992/voice_relay/internal/delivery"
	"github.com/Vovarama1992/voice_relay/internal/ratelimit"
	"github.com/Vovarama1992/voice_relay/internal/speech"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// ENV / CONFIG
	// =========================================================================

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// PROVIDER CLIENT / SERVICE
	// =========================================================================

	openAIClient := speech.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Timeout, cfg.OpenAI.MaxRetries)
	speechService := speech.NewService(openAIClient, openAIClient)

	limiter := ratelimit.New(cfg.Limits.RateWindow, nil)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(
		delivery.RequestLogger(zl),
		delivery.KeepAliveHints,
	)

	speechHandler := delivery.NewSpeechHandler(speechService, zl, cfg.Limits.MaxUploadSize, cfg.Limits.MaxTextLength)

	delivery.RegisterRoutes(r, speechHandler, delivery.RateGate(limiter))

	// =========================================================================
	// START SERVER
	// =========================================================================

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		// вызовы провайдера бывают долгими, держим соединение подольше
		IdleTimeout: 120 * time.Second,
	}

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + cfg.Server.Addr,
		Service: "voice_relay",
	})

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
