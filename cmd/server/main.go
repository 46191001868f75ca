package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"medical-intake-agent/internal/config"
	"medical-intake-agent/internal/diagnosis"
	"medical-intake-agent/internal/export"
	"medical-intake-agent/internal/intake"
	"medical-intake-agent/internal/llm"
	"medical-intake-agent/internal/logging"
)

func main() {
	cfg := config.Load()
	logging.Init("medical-intake-agent", cfg.Env, cfg.LogLevel)

	if cfg.OpenRouter.APIKey == "" {
		log.Warn().Msg("OPENROUTER_API_KEY is not set; interviews cannot be started")
	}
	if cfg.Diagnosis.APIKey == "" {
		log.Info().Msg("RAPIDAPI_KEY is not set; diagnosis lookup disabled")
	}

	aiClient := llm.NewClient(cfg.OpenRouter)
	lookupClient := diagnosis.NewClient(cfg.Diagnosis)

	repo := intake.NewMemoryRepository()
	svc := intake.NewService(repo, aiClient, lookupClient, cfg.OpenRouter.APIKey != "")
	intakeHandler := intake.NewHandler(svc)
	exportHandler := export.NewHandler(svc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		intake.RegisterRoutes(r, intakeHandler)
		export.RegisterRoutes(r, exportHandler)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Msg("server starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
