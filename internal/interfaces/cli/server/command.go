// Package server implements the CLI command that runs the API server, the
// session reclamation loops and the imaging file watcher.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	auditusecases "dicomdesk/internal/application/audit/usecases"
	catalogusecases "dicomdesk/internal/application/catalog/usecases"
	doctorusecases "dicomdesk/internal/application/doctor/usecases"
	"dicomdesk/internal/application/ingest"
	sessionusecases "dicomdesk/internal/application/session/usecases"
	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/infrastructure/auth"
	"dicomdesk/internal/infrastructure/config"
	"dicomdesk/internal/infrastructure/database"
	"dicomdesk/internal/infrastructure/dicomio"
	"dicomdesk/internal/infrastructure/guacamole"
	"dicomdesk/internal/infrastructure/migration"
	"dicomdesk/internal/infrastructure/repository"
	"dicomdesk/internal/infrastructure/scheduler"
	"dicomdesk/internal/infrastructure/winrm"
	httpRouter "dicomdesk/internal/interfaces/http"
	"dicomdesk/internal/interfaces/http/handlers"
	"dicomdesk/internal/interfaces/http/middleware"
	"dicomdesk/internal/shared/goroutine"
	"dicomdesk/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the API server together with the session reclamation loops and the imaging file watcher.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.NewLogger()
	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Errorw("failed to close database", "error", err)
		}
	}()

	if autoMigrate {
		if err := migration.NewRunner(log).Up(database.Get()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	db := database.Get()
	sessionRepo := repository.NewSessionRepository(db, log)
	patientRepo := repository.NewPatientRepository(db, log)
	studyRepo := repository.NewStudyRepository(db, log)
	doctorRepo := repository.NewDoctorRepository(db, log)
	assignmentRepo := repository.NewAssignmentRepository(db, log)
	auditRepo := repository.NewAuditLogRepository(db, log)
	recorder := repository.NewAsyncAuditRecorder(auditRepo, log)

	runner, err := buildRemoteRunner(cfg, log)
	if err != nil {
		return err
	}
	gateway := guacamole.NewClient(&cfg.Guacamole, log)
	verifier := auth.NewKeycloakVerifier(&cfg.Keycloak, log)

	provisioningCfg := sessionusecases.ProvisioningConfig{
		RDPHost:       cfg.WinRM.RDPHost,
		RDPPort:       cfg.WinRM.RDPPort,
		MaxConcurrent: cfg.Session.MaxConcurrent,
	}

	sessionHandler := handlers.NewSessionHandler(
		sessionusecases.NewCreateSessionUseCase(sessionRepo, doctorRepo, patientRepo, runner, gateway, provisioningCfg, log),
		sessionusecases.NewTerminateSessionUseCase(sessionRepo, doctorRepo, runner, gateway, log),
		sessionusecases.NewExtendSessionUseCase(sessionRepo, doctorRepo, log),
		sessionusecases.NewGetSessionUseCase(sessionRepo, doctorRepo),
		sessionusecases.NewListSessionsUseCase(sessionRepo, doctorRepo, log),
		sessionusecases.NewGetSessionAccessURLUseCase(sessionRepo, doctorRepo, gateway, log),
	)
	patientHandler := handlers.NewPatientHandler(
		catalogusecases.NewListPatientsUseCase(patientRepo, studyRepo, doctorRepo, log),
		catalogusecases.NewGetPatientUseCase(patientRepo, studyRepo, doctorRepo, log),
		catalogusecases.NewListPatientStudiesUseCase(patientRepo, studyRepo, doctorRepo, log),
	)
	doctorHandler := handlers.NewDoctorHandler(
		doctorusecases.NewListDoctorsUseCase(doctorRepo, log),
		doctorusecases.NewCreateAssignmentUseCase(assignmentRepo, doctorRepo, patientRepo, log),
		doctorusecases.NewDeleteAssignmentUseCase(assignmentRepo, log),
		doctorusecases.NewListAssignmentsUseCase(assignmentRepo, log),
	)
	auditLogHandler := handlers.NewAuditLogHandler(
		auditusecases.NewListAuditLogsUseCase(auditRepo, log),
		auditusecases.NewExportAuditLogsUseCase(auditRepo, log),
	)

	router := httpRouter.NewRouter(
		middleware.NewAuthMiddleware(verifier, log),
		recorder,
		sessionHandler,
		patientHandler,
		doctorHandler,
		auditLogHandler,
		log,
	)
	router.SetupRoutes(cfg)

	reclamationCfg := sessionusecases.ReclamationConfig{
		IdleTimeout: time.Duration(cfg.Session.IdleTimeout) * time.Second,
		HardTimeout: time.Duration(cfg.Session.HardTimeout) * time.Second,
	}
	schedulerMgr, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	err = schedulerMgr.RegisterReclamationJobs(
		sessionusecases.NewTimeoutSweepJob(sessionRepo, gateway, recorder, reclamationCfg, log),
		sessionusecases.NewOrphanSweepJob(sessionRepo, gateway, recorder, reclamationCfg, log),
		time.Duration(cfg.Session.CheckInterval)*time.Second,
		time.Duration(cfg.Session.OrphanSweepSeconds)*time.Second,
	)
	if err != nil {
		return fmt.Errorf("failed to register reclamation jobs: %w", err)
	}
	schedulerMgr.Start()
	defer func() {
		if err := schedulerMgr.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}()

	watcherCtx, stopWatcher := context.WithCancel(context.Background())
	defer stopWatcher()
	startIngestWatcher(watcherCtx, cfg, patientRepo, studyRepo, log)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")
	stopWatcher()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

// buildRemoteRunner selects the remote execution provider. An empty host
// selects the deterministic in-memory provider for development.
func buildRemoteRunner(cfg *config.Config, log logger.Interface) (session.RemoteRunner, error) {
	if cfg.WinRM.Host == "" {
		log.Warnw("no remote execution host configured, using in-memory provider")
		return winrm.NewMockRunner(log), nil
	}
	runner, err := winrm.NewRunner(&cfg.WinRM, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote runner: %w", err)
	}
	return runner, nil
}

// startIngestWatcher runs the imaging file watcher until the context is
// cancelled. A missing watch directory disables ingestion.
func startIngestWatcher(
	ctx context.Context,
	cfg *config.Config,
	patientRepo catalog.PatientRepository,
	studyRepo catalog.StudyRepository,
	log logger.Interface,
) {
	if cfg.Dicom.WatchDir == "" {
		log.Warnw("no imaging watch directory configured, ingestion disabled")
		return
	}

	watcher := ingest.NewWatcher(
		cfg.Dicom.WatchDir,
		dicomio.NewTagExtractor(log),
		repository.NewCatalogIngestor(patientRepo, studyRepo, log),
		ingest.NewFileMover(cfg.Dicom.ProcessedDir, cfg.Dicom.ErrorDir, log),
		log,
	)

	goroutine.SafeGo(log, "dicom-watcher", func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("imaging file watcher exited", "error", err)
		}
	})
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod":
		return "release"
	case "development", "dev":
		return "debug"
	case "test":
		return "test"
	default:
		return "debug"
	}
}
