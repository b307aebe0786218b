package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/errors"
)

// GetSessionQuery represents the input for fetching one session.
type GetSessionQuery struct {
	Requester Requester
	SessionID uuid.UUID
}

// GetSessionUseCase fetches a single session with ownership checks.
type GetSessionUseCase struct {
	sessions session.Repository
	doctors  doctor.Repository
}

// NewGetSessionUseCase creates a new GetSessionUseCase.
func NewGetSessionUseCase(sessions session.Repository, doctors doctor.Repository) *GetSessionUseCase {
	return &GetSessionUseCase{
		sessions: sessions,
		doctors:  doctors,
	}
}

// Execute returns the session.
func (uc *GetSessionUseCase) Execute(ctx context.Context, query GetSessionQuery) (*SessionResult, error) {
	s, err := uc.sessions.GetByID(ctx, query.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if s == nil {
		return nil, errors.NewNotFoundError("session not found")
	}

	if err := authorizeSessionAccess(ctx, uc.doctors, s, query.Requester); err != nil {
		return nil, err
	}

	return newSessionResult(s), nil
}
