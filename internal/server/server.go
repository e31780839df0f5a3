package server

import (
	"log/slog"
	"net/http"

	"olist-dashboard/internal/handlers"
	"olist-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, display handlers.Display, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger, display),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger, display),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)

	// REST API endpoints, all accepting ?start=YYYY-MM-DD&end=YYYY-MM-DD
	s.mux.HandleFunc("GET /api/bounds", s.apiHandlers.HandleBounds)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/monthly", s.apiHandlers.HandleMonthly)
	s.mux.HandleFunc("GET /api/top-cities", s.apiHandlers.HandleTopCities)
	s.mux.HandleFunc("GET /api/top-states", s.apiHandlers.HandleTopStates)
	s.mux.HandleFunc("GET /api/review-values", s.apiHandlers.HandleReviewValues)
	s.mux.HandleFunc("GET /api/time-trends", s.apiHandlers.HandleTimeTrends)
	s.mux.HandleFunc("GET /api/on-time", s.apiHandlers.HandleOnTime)
	s.mux.HandleFunc("GET /api/satisfaction", s.apiHandlers.HandleSatisfaction)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/summary", s.sseHandlers.HandleSummary)
	s.mux.HandleFunc("GET /sse/monthly", s.sseHandlers.HandleMonthly)
	s.mux.HandleFunc("GET /sse/locations", s.sseHandlers.HandleLocations)
	s.mux.HandleFunc("GET /sse/reviews", s.sseHandlers.HandleReviews)
	s.mux.HandleFunc("GET /sse/delivery", s.sseHandlers.HandleDelivery)
	s.mux.HandleFunc("GET /sse/satisfaction", s.sseHandlers.HandleSatisfaction)
	s.mux.HandleFunc("GET /sse/refresh", s.sseHandlers.HandleRefresh)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
