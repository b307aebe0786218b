// Package session provides the domain model and business rules for
// remote-desktop work sessions pairing a doctor with a patient's imaging data.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a session
type Status string

const (
	// StatusCreating indicates provisioning is in progress
	StatusCreating Status = "creating"
	// StatusActive indicates the session is usable
	StatusActive Status = "active"
	// StatusIdleWarning indicates the session passed the idle threshold
	StatusIdleWarning Status = "idle_warning"
	// StatusTerminated is the absorbing terminal state
	StatusTerminated Status = "terminated"
)

// IsValid checks if the status is a known lifecycle state
func (s Status) IsValid() bool {
	switch s {
	case StatusCreating, StatusActive, StatusIdleWarning, StatusTerminated:
		return true
	}
	return false
}

// IsTerminal reports whether the status is absorbing.
func (s Status) IsTerminal() bool {
	return s == StatusTerminated
}

// NonTerminalStatuses lists every status that counts against concurrency limits.
func NonTerminalStatuses() []Status {
	return []Status{StatusCreating, StatusActive, StatusIdleWarning}
}

// Session is the aggregate root for one doctor-to-patient remote working
// connection. Remote handles are mirrored here for reconciliation; the session
// row is the source of truth for what must be torn down.
type Session struct {
	id                    uuid.UUID
	doctorID              uuid.UUID
	patientID             uuid.UUID
	studyID               *uuid.UUID
	guacamoleConnectionID string
	rdsSessionID          string
	windowsUser           string
	status                Status
	startedAt             time.Time
	lastActivityAt        *time.Time
	endedAt               *time.Time
}

// NewSession creates a session in the creating state. The row must be
// persisted before any remote provisioning starts so that concurrent limit
// checks see it.
func NewSession(doctorID, patientID uuid.UUID) (*Session, error) {
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor ID is required")
	}
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient ID is required")
	}

	return &Session{
		id:        uuid.New(),
		doctorID:  doctorID,
		patientID: patientID,
		status:    StatusCreating,
		startedAt: time.Now().UTC(),
	}, nil
}

// ReconstructSession reconstructs a session from persistence
func ReconstructSession(
	id, doctorID, patientID uuid.UUID,
	studyID *uuid.UUID,
	guacamoleConnectionID, rdsSessionID, windowsUser string,
	status Status,
	startedAt time.Time,
	lastActivityAt, endedAt *time.Time,
) (*Session, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("session ID cannot be nil")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid session status: %s", status)
	}

	return &Session{
		id:                    id,
		doctorID:              doctorID,
		patientID:             patientID,
		studyID:               studyID,
		guacamoleConnectionID: guacamoleConnectionID,
		rdsSessionID:          rdsSessionID,
		windowsUser:           windowsUser,
		status:                status,
		startedAt:             startedAt,
		lastActivityAt:        lastActivityAt,
		endedAt:               endedAt,
	}, nil
}

func (s *Session) ID() uuid.UUID                 { return s.id }
func (s *Session) DoctorID() uuid.UUID           { return s.doctorID }
func (s *Session) PatientID() uuid.UUID          { return s.patientID }
func (s *Session) StudyID() *uuid.UUID           { return s.studyID }
func (s *Session) GuacamoleConnectionID() string { return s.guacamoleConnectionID }
func (s *Session) RDSSessionID() string          { return s.rdsSessionID }
func (s *Session) WindowsUser() string           { return s.windowsUser }
func (s *Session) Status() Status                { return s.status }
func (s *Session) StartedAt() time.Time          { return s.startedAt }
func (s *Session) LastActivityAt() *time.Time    { return s.lastActivityAt }
func (s *Session) EndedAt() *time.Time           { return s.endedAt }

// LoginName derives the remote login name for this session. The name is
// deterministic for a given session so that retried provisioning steps and
// cleanup address the same account.
func (s *Session) LoginName() string {
	return fmt.Sprintf("dtx_user_%s", s.id.String()[:8])
}

// Activate transitions a creating session to active, recording the remote
// handles obtained during provisioning.
func (s *Session) Activate(rdsSessionID, guacamoleConnectionID string) error {
	if s.status != StatusCreating {
		return fmt.Errorf("cannot activate session in status %q", s.status)
	}
	if rdsSessionID == "" {
		return fmt.Errorf("RDS session handle is required")
	}
	now := time.Now().UTC()
	s.rdsSessionID = rdsSessionID
	s.guacamoleConnectionID = guacamoleConnectionID
	s.windowsUser = s.LoginName()
	s.status = StatusActive
	s.lastActivityAt = &now
	return nil
}

// AttachRDSSession records the remote execution handle as soon as it exists,
// so a later failure can still tear it down.
func (s *Session) AttachRDSSession(rdsSessionID string) {
	s.rdsSessionID = rdsSessionID
}

// AttachConnection records the display connection handle as soon as it exists.
func (s *Session) AttachConnection(connectionID string) {
	s.guacamoleConnectionID = connectionID
}

// Extend bumps the activity timestamp, resetting an idle warning back to
// active. Valid only while the session is usable.
func (s *Session) Extend() error {
	if s.status != StatusActive && s.status != StatusIdleWarning {
		return fmt.Errorf("cannot extend session in status %q", s.status)
	}
	now := time.Now().UTC()
	s.lastActivityAt = &now
	if s.status == StatusIdleWarning {
		s.status = StatusActive
	}
	return nil
}

// MarkIdle transitions an active session to idle_warning. Repeated calls on an
// already-warned session are rejected so the transition happens exactly once.
func (s *Session) MarkIdle() error {
	if s.status != StatusActive {
		return fmt.Errorf("cannot mark session idle in status %q", s.status)
	}
	s.status = StatusIdleWarning
	return nil
}

// Terminate moves the session to its terminal state. Idempotence is the
// caller's concern; terminating an already-terminated session is an error.
func (s *Session) Terminate() error {
	if s.status == StatusTerminated {
		return fmt.Errorf("session already terminated")
	}
	now := time.Now().UTC()
	s.status = StatusTerminated
	s.endedAt = &now
	return nil
}

// TotalAge returns how long the session has existed at the given instant.
func (s *Session) TotalAge(now time.Time) time.Duration {
	return now.Sub(s.startedAt)
}

// IdleAge returns how long the session has been without activity at the given
// instant. Sessions that never recorded activity are idle since their start.
func (s *Session) IdleAge(now time.Time) time.Duration {
	last := s.startedAt
	if s.lastActivityAt != nil {
		last = *s.lastActivityAt
	}
	return now.Sub(last)
}
