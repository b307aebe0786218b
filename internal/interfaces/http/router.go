// Package http wires the Gin engine: middleware chain, route groups, and
// role gates for the API surface.
package http

import (
	"github.com/gin-gonic/gin"

	"dicomdesk/internal/domain/audit"
	"dicomdesk/internal/infrastructure/config"
	"dicomdesk/internal/interfaces/http/handlers"
	"dicomdesk/internal/interfaces/http/middleware"
	"dicomdesk/internal/shared/constants"
	"dicomdesk/internal/shared/logger"
)

// Router owns the Gin engine and the handler set mounted on it.
type Router struct {
	engine         *gin.Engine
	authMiddleware *middleware.AuthMiddleware
	auditRecorder  audit.Recorder

	sessionHandler  *handlers.SessionHandler
	patientHandler  *handlers.PatientHandler
	doctorHandler   *handlers.DoctorHandler
	auditLogHandler *handlers.AuditLogHandler
	healthHandler   *handlers.HealthHandler

	logger logger.Interface
}

func NewRouter(
	authMiddleware *middleware.AuthMiddleware,
	auditRecorder audit.Recorder,
	sessionHandler *handlers.SessionHandler,
	patientHandler *handlers.PatientHandler,
	doctorHandler *handlers.DoctorHandler,
	auditLogHandler *handlers.AuditLogHandler,
	log logger.Interface,
) *Router {
	return &Router{
		engine:          gin.New(),
		authMiddleware:  authMiddleware,
		auditRecorder:   auditRecorder,
		sessionHandler:  sessionHandler,
		patientHandler:  patientHandler,
		doctorHandler:   doctorHandler,
		auditLogHandler: auditLogHandler,
		healthHandler:   handlers.NewHealthHandler(),
		logger:          log,
	}
}

// Engine exposes the configured engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes(cfg *config.Config) {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/health", r.healthHandler.HealthCheck)

	api := r.engine.Group("/api")
	api.Use(r.authMiddleware.RequireAuth())
	api.Use(middleware.Audit(r.auditRecorder))

	r.setupSessionRoutes(api)
	r.setupPatientRoutes(api)
	r.setupAdminRoutes(api)
}

func (r *Router) setupSessionRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", r.sessionHandler.CreateSession)
		sessions.GET("", r.sessionHandler.ListSessions)
		sessions.GET("/:id", r.sessionHandler.GetSession)
		sessions.DELETE("/:id", r.sessionHandler.TerminateSession)
		sessions.POST("/:id/extend", r.sessionHandler.ExtendSession)
		sessions.GET("/:id/access-url", r.sessionHandler.GetAccessURL)
	}
}

func (r *Router) setupPatientRoutes(api *gin.RouterGroup) {
	patients := api.Group("/patients")
	{
		patients.GET("", r.patientHandler.ListPatients)
		patients.GET("/:id", r.patientHandler.GetPatient)
		patients.GET("/:id/studies", r.patientHandler.ListPatientStudies)
	}
}

// setupAdminRoutes configures admin-only routes
func (r *Router) setupAdminRoutes(api *gin.RouterGroup) {
	requireAdmin := r.authMiddleware.RequireRole(constants.RoleAdmin)

	doctors := api.Group("/doctors")
	{
		doctors.GET("", requireAdmin, r.doctorHandler.ListDoctors)
	}

	assignments := api.Group("/assignments")
	assignments.Use(requireAdmin)
	{
		assignments.POST("", r.doctorHandler.CreateAssignment)
		assignments.GET("", r.doctorHandler.ListAssignments)
		assignments.DELETE("/:id", r.doctorHandler.DeleteAssignment)
	}

	auditLogs := api.Group("/audit-logs")
	auditLogs.Use(requireAdmin)
	{
		auditLogs.GET("", r.auditLogHandler.ListAuditLogs)
		auditLogs.GET("/export", r.auditLogHandler.ExportAuditLogs)
	}
}
