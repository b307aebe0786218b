package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// CreateSessionCommand represents the input for creating a session.
type CreateSessionCommand struct {
	Requester Requester
	PatientID uuid.UUID
}

// ProvisioningConfig carries the remote host the display connection binds to
// and the global concurrency cap.
type ProvisioningConfig struct {
	RDPHost       string
	RDPPort       int
	MaxConcurrent int
}

// CreateSessionUseCase handles session creation: limit checks, the
// three-step remote provisioning workflow, and rollback on partial failure.
type CreateSessionUseCase struct {
	sessions session.Repository
	doctors  doctor.Repository
	patients catalog.PatientRepository
	runner   session.RemoteRunner
	gateway  session.DisplayGateway
	cfg      ProvisioningConfig
	logger   logger.Interface
}

// NewCreateSessionUseCase creates a new CreateSessionUseCase.
func NewCreateSessionUseCase(
	sessions session.Repository,
	doctors doctor.Repository,
	patients catalog.PatientRepository,
	runner session.RemoteRunner,
	gateway session.DisplayGateway,
	cfg ProvisioningConfig,
	logger logger.Interface,
) *CreateSessionUseCase {
	return &CreateSessionUseCase{
		sessions: sessions,
		doctors:  doctors,
		patients: patients,
		runner:   runner,
		gateway:  gateway,
		cfg:      cfg,
		logger:   logger,
	}
}

// Execute creates a new session. The creating-status row is committed before
// provisioning starts so concurrent limit checks observe it; every attempt
// leaves either an active or a terminated row behind.
func (uc *CreateSessionUseCase) Execute(ctx context.Context, cmd CreateSessionCommand) (*SessionResult, error) {
	uc.logger.Infow("executing create session use case", "patient_id", cmd.PatientID)

	d, err := uc.doctors.GetByKeycloakUserID(ctx, cmd.Requester.KeycloakUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up doctor: %w", err)
	}
	if d == nil {
		return nil, errors.NewNotFoundError("doctor profile not found, contact administrator")
	}

	patient, err := uc.patients.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up patient: %w", err)
	}
	if patient == nil {
		return nil, errors.NewNotFoundError("patient not found")
	}

	existing, err := uc.sessions.FindNonTerminalByDoctor(ctx, d.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to check existing session: %w", err)
	}
	if existing != nil {
		uc.logger.Warnw("doctor already has a live session", "doctor_id", d.ID(), "session_id", existing.ID())
		return nil, errors.NewConflictError("doctor already has an active session, end it before creating a new one")
	}

	count, err := uc.sessions.CountNonTerminal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	if count >= int64(uc.cfg.MaxConcurrent) {
		uc.logger.Warnw("global session limit reached", "count", count, "limit", uc.cfg.MaxConcurrent)
		return nil, errors.NewResourceExhaustedError(
			fmt.Sprintf("session limit reached (%d concurrent sessions), try again later", uc.cfg.MaxConcurrent))
	}

	s, err := session.NewSession(d.ID(), cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to build session: %w", err)
	}

	if err := uc.sessions.Create(ctx, s); err != nil {
		return nil, err
	}

	if err := uc.provision(ctx, s, cmd.PatientID); err != nil {
		uc.rollback(ctx, s)
		return nil, err
	}

	if err := uc.sessions.Update(ctx, s); err != nil {
		uc.rollback(ctx, s)
		return nil, fmt.Errorf("failed to persist activated session: %w", err)
	}

	uc.logger.Infow("session created",
		"session_id", s.ID(),
		"doctor_id", d.ID(),
		"patient_id", cmd.PatientID,
		"rds_session_id", s.RDSSessionID(),
	)
	return newSessionResult(s), nil
}

// provision runs the three remote steps in order, recording each handle on
// the session as soon as it exists so rollback knows what to tear down.
func (uc *CreateSessionUseCase) provision(ctx context.Context, s *session.Session, patientID uuid.UUID) error {
	loginName := s.LoginName()
	password, err := generatePassword()
	if err != nil {
		return errors.NewProvisioningFailedError("failed to generate session credentials", err)
	}

	rdsSessionID, err := uc.runner.RunOperation(ctx, session.OpCreateRDSSession, map[string]string{
		"UserName":  loginName,
		"Password":  password,
		"PatientId": patientID.String(),
	})
	if err != nil {
		return errors.NewProvisioningFailedError("failed to create remote execution session", err)
	}
	s.AttachRDSSession(rdsSessionID)

	connectionID, err := uc.gateway.CreateConnection(ctx,
		fmt.Sprintf("session-%s", s.ID()),
		uc.cfg.RDPHost, uc.cfg.RDPPort,
		loginName, password,
	)
	if err != nil {
		return errors.NewProvisioningFailedError("failed to create display connection", err)
	}
	s.AttachConnection(connectionID)

	_, err = uc.runner.RunOperation(ctx, session.OpLaunchViewer, map[string]string{
		"SessionId": rdsSessionID,
		"DicomPath": fmt.Sprintf(`\\shared\dicom\patients\%s`, patientID),
	})
	if err != nil {
		return errors.NewProvisioningFailedError("failed to launch imaging application", err)
	}

	return s.Activate(rdsSessionID, connectionID)
}

// rollback tears down whatever remote resources the failed attempt created,
// display connection first, then marks the row terminated. Cleanup results
// are logged and otherwise ignored.
func (uc *CreateSessionUseCase) rollback(ctx context.Context, s *session.Session) {
	if s.GuacamoleConnectionID() != "" {
		if err := uc.gateway.DeleteConnection(ctx, s.GuacamoleConnectionID()); err != nil {
			uc.logger.Warnw("display connection cleanup failed during rollback",
				"session_id", s.ID(), "connection_id", s.GuacamoleConnectionID(), "error", err)
		}
	}
	if s.RDSSessionID() != "" {
		if _, err := uc.runner.RunOperation(ctx, session.OpCleanupSession, map[string]string{
			"SessionId": s.RDSSessionID(),
		}); err != nil {
			uc.logger.Warnw("remote session cleanup failed during rollback",
				"session_id", s.ID(), "rds_session_id", s.RDSSessionID(), "error", err)
		}
	}

	if err := s.Terminate(); err != nil {
		uc.logger.Errorw("failed to terminalize session during rollback", "session_id", s.ID(), "error", err)
		return
	}
	if err := uc.sessions.Update(ctx, s); err != nil {
		uc.logger.Errorw("failed to persist terminated session during rollback", "session_id", s.ID(), "error", err)
	}
}

func generatePassword() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
