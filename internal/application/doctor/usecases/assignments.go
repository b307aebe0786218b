package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// AssignmentResult is the API shape of a patient assignment.
type AssignmentResult struct {
	ID         uuid.UUID  `json:"id"`
	PatientID  uuid.UUID  `json:"patient_id"`
	DoctorID   uuid.UUID  `json:"doctor_id"`
	AssignedBy *uuid.UUID `json:"assigned_by,omitempty"`
	AssignedAt time.Time  `json:"assigned_at"`
}

func newAssignmentResult(a *doctor.Assignment) AssignmentResult {
	return AssignmentResult{
		ID:         a.ID(),
		PatientID:  a.PatientID(),
		DoctorID:   a.DoctorID(),
		AssignedBy: a.AssignedBy(),
		AssignedAt: a.AssignedAt(),
	}
}

// CreateAssignmentCommand grants one doctor access to one patient.
type CreateAssignmentCommand struct {
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	AssignedBy *uuid.UUID
}

// CreateAssignmentUseCase validates both endpoints exist before creating the
// assignment edge.
type CreateAssignmentUseCase struct {
	assignments doctor.AssignmentRepository
	doctors     doctor.Repository
	patients    catalog.PatientRepository
	logger      logger.Interface
}

// NewCreateAssignmentUseCase creates a new create assignment use case instance.
func NewCreateAssignmentUseCase(
	assignments doctor.AssignmentRepository,
	doctors doctor.Repository,
	patients catalog.PatientRepository,
	logger logger.Interface,
) *CreateAssignmentUseCase {
	return &CreateAssignmentUseCase{
		assignments: assignments,
		doctors:     doctors,
		patients:    patients,
		logger:      logger,
	}
}

// Execute creates the assignment. A duplicate (patient, doctor) pair is a
// conflict.
func (uc *CreateAssignmentUseCase) Execute(ctx context.Context, cmd CreateAssignmentCommand) (*AssignmentResult, error) {
	p, err := uc.patients.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("patient not found")
	}

	d, err := uc.doctors.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	if d == nil {
		return nil, errors.NewNotFoundError("doctor not found")
	}

	a, err := doctor.NewAssignment(cmd.PatientID, cmd.DoctorID, cmd.AssignedBy)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.assignments.Create(ctx, a); err != nil {
		return nil, err
	}

	uc.logger.Infow("patient assigned to doctor",
		"assignment_id", a.ID(),
		"patient_id", cmd.PatientID,
		"doctor_id", cmd.DoctorID,
	)

	result := newAssignmentResult(a)
	return &result, nil
}

// DeleteAssignmentUseCase revokes a doctor's access to a patient.
type DeleteAssignmentUseCase struct {
	assignments doctor.AssignmentRepository
	logger      logger.Interface
}

// NewDeleteAssignmentUseCase creates a new delete assignment use case instance.
func NewDeleteAssignmentUseCase(assignments doctor.AssignmentRepository, logger logger.Interface) *DeleteAssignmentUseCase {
	return &DeleteAssignmentUseCase{assignments: assignments, logger: logger}
}

// Execute deletes the assignment edge.
func (uc *DeleteAssignmentUseCase) Execute(ctx context.Context, id uuid.UUID) error {
	if err := uc.assignments.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Infow("assignment deleted", "assignment_id", id)
	return nil
}

// ListAssignmentsQuery narrows the assignment listing.
type ListAssignmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// ListAssignmentsUseCase lists assignment edges with optional filters.
type ListAssignmentsUseCase struct {
	assignments doctor.AssignmentRepository
	logger      logger.Interface
}

// NewListAssignmentsUseCase creates a new list assignments use case instance.
func NewListAssignmentsUseCase(assignments doctor.AssignmentRepository, logger logger.Interface) *ListAssignmentsUseCase {
	return &ListAssignmentsUseCase{assignments: assignments, logger: logger}
}

// Execute returns assignments matching the query, newest first.
func (uc *ListAssignmentsUseCase) Execute(ctx context.Context, query ListAssignmentsQuery) ([]AssignmentResult, error) {
	listed, err := uc.assignments.List(ctx, doctor.AssignmentFilter{
		PatientID: query.PatientID,
		DoctorID:  query.DoctorID,
	})
	if err != nil {
		return nil, err
	}

	results := make([]AssignmentResult, 0, len(listed))
	for _, a := range listed {
		results = append(results, newAssignmentResult(a))
	}
	return results, nil
}
