// Package catalog provides the domain model for the imaging catalog:
// patients, studies, and the normalized records produced by tag extraction.
// The catalog is append-only; rows are never updated after creation.
package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Patient is a catalog subject, keyed by the stable external subject
// identifier carried in the imaging files.
type Patient struct {
	id        uuid.UUID
	patientID string
	name      string
	createdAt time.Time
}

// NewPatient creates a patient for lazy insertion on first study reference.
func NewPatient(patientID, name string) (*Patient, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient identifier is required")
	}
	return &Patient{
		id:        uuid.New(),
		patientID: patientID,
		name:      name,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructPatient reconstructs a patient from persistence
func ReconstructPatient(id uuid.UUID, patientID, name string, createdAt time.Time) (*Patient, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("patient ID cannot be nil")
	}
	if patientID == "" {
		return nil, fmt.Errorf("patient identifier is required")
	}
	return &Patient{
		id:        id,
		patientID: patientID,
		name:      name,
		createdAt: createdAt,
	}, nil
}

func (p *Patient) ID() uuid.UUID        { return p.id }
func (p *Patient) PatientID() string    { return p.patientID }
func (p *Patient) Name() string         { return p.name }
func (p *Patient) CreatedAt() time.Time { return p.createdAt }
