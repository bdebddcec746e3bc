package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charlapp/charla/internal/config"
	"github.com/charlapp/charla/internal/handlers"
	"github.com/charlapp/charla/internal/relay"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	// Load configuration from environment
	cfg := config.Load()

	// Initialize the broadcast hub
	hub := relay.NewHub()
	go hub.Run()

	// Start background occupancy reporter
	reporter := relay.NewReporter(hub, 1*time.Minute)
	go reporter.Start()

	// Initialize handlers
	wsHandler := relay.NewHandler(hub)
	statsHandler := handlers.NewStatsHandler(hub)

	// Set up router with middleware
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS configuration - reads from CORS_ORIGINS env var
	// Format: comma-separated list of origins; defaults to any origin,
	// matching the reference relay behavior
	corsOrigins := getCorsOrigins()
	log.Printf("CORS allowed origins: %v", corsOrigins)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", handlers.HealthCheck)

	// WebSocket relay endpoint
	r.Get("/ws", wsHandler.ServeWS)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", statsHandler.GetStats)
	})

	// Start server
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("charla relay listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// getCorsOrigins returns allowed CORS origins from environment or defaults
func getCorsOrigins() []string {
	originsEnv := os.Getenv("CORS_ORIGINS")
	if originsEnv == "" {
		return []string{"*"}
	}

	// Split comma-separated origins and trim whitespace
	origins := strings.Split(originsEnv, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}
