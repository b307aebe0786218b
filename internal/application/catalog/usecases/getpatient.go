package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// GetPatientQuery identifies the patient and the caller.
type GetPatientQuery struct {
	Requester Requester
	PatientID uuid.UUID
}

// GetPatientUseCase returns one patient with its studies. Patients outside
// the caller's scope read as not found rather than forbidden.
type GetPatientUseCase struct {
	patients catalog.PatientRepository
	studies  catalog.StudyRepository
	doctors  doctor.Repository
	logger   logger.Interface
}

// NewGetPatientUseCase creates a new get patient use case instance.
func NewGetPatientUseCase(
	patients catalog.PatientRepository,
	studies catalog.StudyRepository,
	doctors doctor.Repository,
	logger logger.Interface,
) *GetPatientUseCase {
	return &GetPatientUseCase{
		patients: patients,
		studies:  studies,
		doctors:  doctors,
		logger:   logger,
	}
}

// Execute returns the patient detail with its studies.
func (uc *GetPatientUseCase) Execute(ctx context.Context, query GetPatientQuery) (*PatientDetailResult, error) {
	p, err := uc.resolveVisiblePatient(ctx, query)
	if err != nil {
		return nil, err
	}

	studies, err := uc.studies.ListByPatient(ctx, p.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}

	return &PatientDetailResult{
		PatientResult: newPatientResult(p, len(studies)),
		Studies:       newStudyResults(studies),
	}, nil
}

func (uc *GetPatientUseCase) resolveVisiblePatient(ctx context.Context, query GetPatientQuery) (*catalog.Patient, error) {
	p, err := uc.patients.GetByID(ctx, query.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("patient not found")
	}

	if query.Requester.IsAdmin {
		return p, nil
	}

	assigned, err := visiblePatients(ctx, uc.patients, uc.doctors, query.Requester)
	if err != nil {
		return nil, err
	}
	for _, candidate := range assigned {
		if candidate.ID() == p.ID() {
			return p, nil
		}
	}
	return nil, errors.NewNotFoundError("patient not found")
}
