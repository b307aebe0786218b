package usecases

import (
	"context"
	"fmt"

	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/logger"
)

// ListSessionsQuery represents the input for listing sessions.
type ListSessionsQuery struct {
	Requester Requester
}

// ListSessionsUseCase lists sessions: admins see all, doctors only their own.
type ListSessionsUseCase struct {
	sessions session.Repository
	doctors  doctor.Repository
	logger   logger.Interface
}

// NewListSessionsUseCase creates a new ListSessionsUseCase.
func NewListSessionsUseCase(
	sessions session.Repository,
	doctors doctor.Repository,
	logger logger.Interface,
) *ListSessionsUseCase {
	return &ListSessionsUseCase{
		sessions: sessions,
		doctors:  doctors,
		logger:   logger,
	}
}

// Execute lists the sessions visible to the requester. A requester with no
// doctor record sees an empty list, not an error.
func (uc *ListSessionsUseCase) Execute(ctx context.Context, query ListSessionsQuery) ([]*SessionResult, error) {
	if query.Requester.IsAdmin {
		sessions, err := uc.sessions.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		return newSessionResults(sessions), nil
	}

	d, err := uc.doctors.GetByKeycloakUserID(ctx, query.Requester.KeycloakUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up doctor: %w", err)
	}
	if d == nil {
		return []*SessionResult{}, nil
	}

	sessions, err := uc.sessions.ListByDoctor(ctx, d.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return newSessionResults(sessions), nil
}
