// Package doctor provides the domain model for clinician records and their
// patient assignments.
package doctor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Doctor maps an external identity-provider user to an internal record.
// A usable doctor record is the precondition for creating sessions.
type Doctor struct {
	id             uuid.UUID
	keycloakUserID string
	name           string
	email          string
	createdAt      time.Time
}

// NewDoctor creates a doctor record for a verified external identity.
func NewDoctor(keycloakUserID, name, email string) (*Doctor, error) {
	if keycloakUserID == "" {
		return nil, fmt.Errorf("external user ID is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	return &Doctor{
		id:             uuid.New(),
		keycloakUserID: keycloakUserID,
		name:           name,
		email:          email,
		createdAt:      time.Now().UTC(),
	}, nil
}

// ReconstructDoctor reconstructs a doctor from persistence
func ReconstructDoctor(id uuid.UUID, keycloakUserID, name, email string, createdAt time.Time) (*Doctor, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("doctor ID cannot be nil")
	}
	if keycloakUserID == "" {
		return nil, fmt.Errorf("external user ID is required")
	}
	return &Doctor{
		id:             id,
		keycloakUserID: keycloakUserID,
		name:           name,
		email:          email,
		createdAt:      createdAt,
	}, nil
}

func (d *Doctor) ID() uuid.UUID          { return d.id }
func (d *Doctor) KeycloakUserID() string { return d.keycloakUserID }
func (d *Doctor) Name() string           { return d.name }
func (d *Doctor) Email() string          { return d.email }
func (d *Doctor) CreatedAt() time.Time   { return d.createdAt }

// Assignment is a many-to-many edge between a doctor and a patient.
// Uniqueness is enforced on the (patient, doctor) pair.
type Assignment struct {
	id         uuid.UUID
	patientID  uuid.UUID
	doctorID   uuid.UUID
	assignedBy *uuid.UUID
	assignedAt time.Time
}

// NewAssignment creates an assignment edge.
func NewAssignment(patientID, doctorID uuid.UUID, assignedBy *uuid.UUID) (*Assignment, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient ID is required")
	}
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor ID is required")
	}
	return &Assignment{
		id:         uuid.New(),
		patientID:  patientID,
		doctorID:   doctorID,
		assignedBy: assignedBy,
		assignedAt: time.Now().UTC(),
	}, nil
}

// ReconstructAssignment reconstructs an assignment from persistence
func ReconstructAssignment(id, patientID, doctorID uuid.UUID, assignedBy *uuid.UUID, assignedAt time.Time) (*Assignment, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("assignment ID cannot be nil")
	}
	return &Assignment{
		id:         id,
		patientID:  patientID,
		doctorID:   doctorID,
		assignedBy: assignedBy,
		assignedAt: assignedAt,
	}, nil
}

func (a *Assignment) ID() uuid.UUID          { return a.id }
func (a *Assignment) PatientID() uuid.UUID   { return a.patientID }
func (a *Assignment) DoctorID() uuid.UUID    { return a.doctorID }
func (a *Assignment) AssignedBy() *uuid.UUID { return a.assignedBy }
func (a *Assignment) AssignedAt() time.Time  { return a.assignedAt }
