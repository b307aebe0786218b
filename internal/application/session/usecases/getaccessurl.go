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

// GetSessionAccessURLQuery represents the input for generating a browser
// access URL.
type GetSessionAccessURLQuery struct {
	Requester Requester
	SessionID uuid.UUID
}

// AccessURLResult carries the embeddable client URL for a session.
type AccessURLResult struct {
	URL string `json:"url"`
}

// GetSessionAccessURLUseCase issues a short-lived access URL for a session's
// display connection.
type GetSessionAccessURLUseCase struct {
	sessions session.Repository
	doctors  doctor.Repository
	gateway  session.DisplayGateway
	logger   logger.Interface
}

// NewGetSessionAccessURLUseCase creates a new GetSessionAccessURLUseCase.
func NewGetSessionAccessURLUseCase(
	sessions session.Repository,
	doctors doctor.Repository,
	gateway session.DisplayGateway,
	logger logger.Interface,
) *GetSessionAccessURLUseCase {
	return &GetSessionAccessURLUseCase{
		sessions: sessions,
		doctors:  doctors,
		gateway:  gateway,
		logger:   logger,
	}
}

// Execute returns the client URL for the session's display connection.
func (uc *GetSessionAccessURLUseCase) Execute(ctx context.Context, query GetSessionAccessURLQuery) (*AccessURLResult, error) {
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

	if s.Status().IsTerminal() || s.GuacamoleConnectionID() == "" {
		return nil, errors.NewInvalidStateError(
			fmt.Sprintf("session in status %q has no usable display connection", s.Status()))
	}

	token, err := uc.gateway.IssueAccessToken(ctx, s.GuacamoleConnectionID(), query.Requester.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	uc.logger.Infow("access URL issued", "session_id", s.ID(), "requester", query.Requester.Username)
	return &AccessURLResult{
		URL: uc.gateway.BuildClientURL(s.GuacamoleConnectionID(), token),
	}, nil
}
