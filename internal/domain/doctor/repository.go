package doctor

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists doctor records.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// GetByKeycloakUserID returns the doctor mapped to an external identity,
	// or (nil, nil) when no record exists.
	GetByKeycloakUserID(ctx context.Context, keycloakUserID string) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
}

// AssignmentFilter narrows assignment listings. Nil fields match everything.
type AssignmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// AssignmentRepository persists doctor-patient assignment edges.
type AssignmentRepository interface {
	// Create inserts an assignment; a duplicate (patient, doctor) pair is a
	// conflict error.
	Create(ctx context.Context, a *Assignment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter AssignmentFilter) ([]*Assignment, error)
}
