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

// ExtendSessionCommand represents the input for extending a session.
type ExtendSessionCommand struct {
	Requester Requester
	SessionID uuid.UUID
}

// ExtendSessionUseCase refreshes a session's activity timestamp. A session
// in idle warning returns to active; no external calls are made.
type ExtendSessionUseCase struct {
	sessions session.Repository
	doctors  doctor.Repository
	logger   logger.Interface
}

// NewExtendSessionUseCase creates a new ExtendSessionUseCase.
func NewExtendSessionUseCase(
	sessions session.Repository,
	doctors doctor.Repository,
	logger logger.Interface,
) *ExtendSessionUseCase {
	return &ExtendSessionUseCase{
		sessions: sessions,
		doctors:  doctors,
		logger:   logger,
	}
}

// Execute extends the session.
func (uc *ExtendSessionUseCase) Execute(ctx context.Context, cmd ExtendSessionCommand) (*SessionResult, error) {
	s, err := uc.sessions.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if s == nil {
		return nil, errors.NewNotFoundError("session not found")
	}

	if err := authorizeSessionAccess(ctx, uc.doctors, s, cmd.Requester); err != nil {
		return nil, err
	}

	if err := s.Extend(); err != nil {
		return nil, errors.NewInvalidStateError(err.Error())
	}
	if err := uc.sessions.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to persist extended session: %w", err)
	}

	uc.logger.Debugw("session extended", "session_id", s.ID(), "status", s.Status())
	return newSessionResult(s), nil
}
