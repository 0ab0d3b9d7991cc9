package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autoapply/internal/db"
	"autoapply/internal/email"
	"autoapply/internal/handlers/api"
	"autoapply/internal/middleware"
	"autoapply/internal/pipeline"
	"autoapply/internal/safety"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(database *db.DB, pipe *pipeline.Pipeline, clock safety.Clock, notifier *email.Notifier) {
	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(s.Cfg)

	// Initialize handlers
	candidateHandler := api.NewCandidateHandler(pipe)
	jobHandler := api.NewJobHandler(database, pipe, clock)
	statsHandler := api.NewStatsHandler(database)
	killSwitchHandler := api.NewKillSwitchHandler(database, clock, notifier)
	blacklistHandler := api.NewBlacklistHandler(database)
	probeHandler := api.NewProbeHandler(database)

	// Scanner-inbound routes
	s.App.Post("/api/candidates", authMiddleware.RequireToken, candidateHandler.Create)
	s.App.Post("/api/candidates/batch", authMiddleware.RequireToken, candidateHandler.CreateBatch)

	// Ledger routes
	s.App.Get("/api/jobs", authMiddleware.RequireToken, jobHandler.List)
	s.App.Get("/api/jobs/:draft", authMiddleware.RequireToken, jobHandler.Get)
	s.App.Post("/api/jobs/:draft/status", authMiddleware.RequireToken, jobHandler.UpdateStatus)
	s.App.Post("/api/jobs/:draft/notes", authMiddleware.RequireToken, jobHandler.AppendNote)
	s.App.Post("/api/jobs/:draft/submission-failure", authMiddleware.RequireToken, jobHandler.SubmissionFailure)

	// Reporting routes
	s.App.Get("/api/stats", authMiddleware.RequireToken, statsHandler.Get)
	s.App.Get("/api/audit", authMiddleware.RequireToken, statsHandler.Audit)

	// Operator safety controls
	s.App.Get("/api/killswitch", authMiddleware.RequireToken, killSwitchHandler.Get)
	s.App.Post("/api/killswitch", authMiddleware.RequireToken, killSwitchHandler.Activate)
	s.App.Delete("/api/killswitch", authMiddleware.RequireToken, killSwitchHandler.Deactivate)

	s.App.Get("/api/blacklist", authMiddleware.RequireToken, blacklistHandler.List)
	s.App.Post("/api/blacklist/companies", authMiddleware.RequireToken, blacklistHandler.AddCompany)
	s.App.Post("/api/blacklist/keywords", authMiddleware.RequireToken, blacklistHandler.AddKeyword)

	// Probes and metrics (unauthenticated)
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
