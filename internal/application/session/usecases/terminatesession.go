package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// TerminateSessionCommand represents the input for terminating a session.
type TerminateSessionCommand struct {
	Requester Requester
	SessionID uuid.UUID
}

// TerminateSessionUseCase handles session termination with best-effort
// remote cleanup.
type TerminateSessionUseCase struct {
	sessions session.Repository
	doctors  doctor.Repository
	runner   session.RemoteRunner
	gateway  session.DisplayGateway
	logger   logger.Interface
}

// NewTerminateSessionUseCase creates a new TerminateSessionUseCase.
func NewTerminateSessionUseCase(
	sessions session.Repository,
	doctors doctor.Repository,
	runner session.RemoteRunner,
	gateway session.DisplayGateway,
	logger logger.Interface,
) *TerminateSessionUseCase {
	return &TerminateSessionUseCase{
		sessions: sessions,
		doctors:  doctors,
		runner:   runner,
		gateway:  gateway,
		logger:   logger,
	}
}

// Execute terminates a session. Remote teardown failures are logged and
// never block reclaiming the local record; the row is committed exactly once.
func (uc *TerminateSessionUseCase) Execute(ctx context.Context, cmd TerminateSessionCommand) error {
	s, err := uc.sessions.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if s == nil {
		return errors.NewNotFoundError("session not found")
	}

	if err := authorizeSessionAccess(ctx, uc.doctors, s, cmd.Requester); err != nil {
		return err
	}

	if s.Status().IsTerminal() {
		return errors.NewInvalidStateError("session already terminated")
	}

	if s.GuacamoleConnectionID() != "" {
		if err := uc.gateway.DeleteConnection(ctx, s.GuacamoleConnectionID()); err != nil {
			uc.logger.Warnw("display connection cleanup failed",
				"session_id", s.ID(), "connection_id", s.GuacamoleConnectionID(), "error", err)
		}
	}
	if s.RDSSessionID() != "" {
		if _, err := uc.runner.RunOperation(ctx, session.OpCleanupSession, map[string]string{
			"SessionId": s.RDSSessionID(),
		}); err != nil {
			uc.logger.Warnw("remote session cleanup failed",
				"session_id", s.ID(), "rds_session_id", s.RDSSessionID(), "error", err)
		}
	}

	if err := s.Terminate(); err != nil {
		return err
	}
	if err := uc.sessions.Update(ctx, s); err != nil {
		return fmt.Errorf("failed to persist terminated session: %w", err)
	}

	uc.logger.Infow("session terminated", "session_id", s.ID())
	return nil
}
