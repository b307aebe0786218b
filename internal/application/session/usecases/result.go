// Package usecases implements the session lifecycle workflows: creation with
// multi-step provisioning, termination, extension, listing, browser access
// and the background reclamation sweeps.
package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/errors"
)

// SessionResult is the session representation returned by the use cases.
type SessionResult struct {
	ID                    uuid.UUID  `json:"id"`
	DoctorID              uuid.UUID  `json:"doctor_id"`
	PatientID             uuid.UUID  `json:"patient_id"`
	StudyID               *uuid.UUID `json:"study_id,omitempty"`
	GuacamoleConnectionID string     `json:"guacamole_connection_id,omitempty"`
	RDSSessionID          string     `json:"rds_session_id,omitempty"`
	WindowsUser           string     `json:"windows_user,omitempty"`
	Status                string     `json:"status"`
	StartedAt             time.Time  `json:"started_at"`
	LastActivityAt        *time.Time `json:"last_activity_at,omitempty"`
	EndedAt               *time.Time `json:"ended_at,omitempty"`
}

func newSessionResult(s *session.Session) *SessionResult {
	return &SessionResult{
		ID:                    s.ID(),
		DoctorID:              s.DoctorID(),
		PatientID:             s.PatientID(),
		StudyID:               s.StudyID(),
		GuacamoleConnectionID: s.GuacamoleConnectionID(),
		RDSSessionID:          s.RDSSessionID(),
		WindowsUser:           s.WindowsUser(),
		Status:                string(s.Status()),
		StartedAt:             s.StartedAt(),
		LastActivityAt:        s.LastActivityAt(),
		EndedAt:               s.EndedAt(),
	}
}

func newSessionResults(sessions []*session.Session) []*SessionResult {
	results := make([]*SessionResult, 0, len(sessions))
	for _, s := range sessions {
		results = append(results, newSessionResult(s))
	}
	return results
}

// Requester identifies who is calling a session operation. Admins may act on
// any session; doctors only on their own.
type Requester struct {
	KeycloakUserID string
	Username       string
	IsAdmin        bool
}

// authorizeSessionAccess checks whether the requester may act on the session.
func authorizeSessionAccess(ctx context.Context, doctors doctor.Repository, s *session.Session, requester Requester) error {
	if requester.IsAdmin {
		return nil
	}

	d, err := doctors.GetByKeycloakUserID(ctx, requester.KeycloakUserID)
	if err != nil {
		return err
	}
	if d == nil || d.ID() != s.DoctorID() {
		return errors.NewForbiddenError("you do not have permission to access this session")
	}
	return nil
}
