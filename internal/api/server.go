// Package api provides the local HTTP server for CoinQuest.
// It exposes the progression profile, host event ingestion and a live
// event feed to the desktop UI and CLI.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/domain"
	"github.com/tutu-network/coinquest/internal/health"
	"github.com/tutu-network/coinquest/internal/infra/metrics"
)

// Server is the CoinQuest HTTP API server.
type Server struct {
	// mu serializes engine calls: the engine expects a single caller.
	mu sync.Mutex

	engine         *engagement.Engine
	notify         *engagement.NotificationService // nil disables /notifications
	ledger         domain.XPLedger                 // nil disables /xp/history
	health         *health.Checker
	live           *LiveHub
	metricsEnabled bool
	corsOrigins    []string
}

// NewServer creates a new API server around eng.
func NewServer(eng *engagement.Engine) *Server {
	return &Server{engine: eng, corsOrigins: []string{"*"}}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetNotifications enables the notification endpoints.
func (s *Server) SetNotifications(n *engagement.NotificationService) { s.notify = n }

// SetLedger enables the XP history endpoint.
func (s *Server) SetLedger(l domain.XPLedger) { s.ledger = l }

// SetHealth reports checker results on /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetLiveHub enables the SSE live feed.
func (s *Server) SetLiveHub(h *LiveHub) { s.live = h }

// SetCORSOrigins restricts Access-Control-Allow-Origin.
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) > 0 {
		s.corsOrigins = origins
	}
}

// Exclusive runs fn with engine access serialized against API handlers.
func (s *Server) Exclusive(fn func(e *engagement.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine)
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(countRequests)
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Route("/api/progress", func(r chi.Router) {
		// The live feed is long-lived; everything else gets a timeout.
		if s.live != nil {
			r.Get("/live", s.live.HandleSSE)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/profile", s.handleProfile)
			r.Get("/level", s.handleLevel)
			r.Get("/achievements", s.handleAchievements)
			r.Post("/achievements/{id}/progress", s.handleAchievementProgress)
			r.Get("/missions", s.handleMissions)
			r.Post("/missions/refresh", s.handleMissionRefresh)
			r.Post("/missions/{id}/start", s.handleMissionStart)
			r.Post("/missions/{id}/progress", s.handleMissionProgress)
			r.Get("/rewards", s.handleRewards)
			r.Get("/rewards/available", s.handleRewardsAvailable)
			r.Post("/rewards/{id}/unlock", s.handleRewardUnlock)
			r.Post("/events/{action}", s.handleEvent)
			r.Post("/xp", s.handleAddXP)
			r.Get("/xp/history", s.handleXPHistory)
			r.Post("/streak/check", s.handleStreakCheck)
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
			r.Post("/reset", s.handleReset)
			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/{id}/shown", s.handleNotificationShown)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	return r
}

// Version is reported on /api/version.
var Version = "0.1.0"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status": "ok",
		"ready":  s.engine.Ready(),
	}
	status := http.StatusOK
	if s.health != nil {
		body["checks"] = s.health.Statuses()
		if !s.health.IsHealthy() {
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, body)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the local UI.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin(s.corsOrigins, r.Header.Get("Origin")))
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func allowOrigin(allowed []string, origin string) string {
	for _, o := range allowed {
		if o == "*" {
			return "*"
		}
		if o == origin {
			return origin
		}
	}
	if len(allowed) > 0 {
		return allowed[0]
	}
	return ""
}

// countRequests records every request by chi route pattern and status.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.APIRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
