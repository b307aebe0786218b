package usecases

import (
	"context"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/shared/logger"
)

// ListPatientStudiesQuery identifies the patient and the caller.
type ListPatientStudiesQuery struct {
	Requester Requester
	PatientID uuid.UUID
}

// ListPatientStudiesUseCase lists one patient's studies under the caller's
// access scope.
type ListPatientStudiesUseCase struct {
	getPatient *GetPatientUseCase
	logger     logger.Interface
}

// NewListPatientStudiesUseCase creates a new list patient studies use case instance.
func NewListPatientStudiesUseCase(
	patients catalog.PatientRepository,
	studies catalog.StudyRepository,
	doctors doctor.Repository,
	logger logger.Interface,
) *ListPatientStudiesUseCase {
	return &ListPatientStudiesUseCase{
		getPatient: NewGetPatientUseCase(patients, studies, doctors, logger),
		logger:     logger,
	}
}

// Execute returns the patient's studies, newest study date first.
func (uc *ListPatientStudiesUseCase) Execute(ctx context.Context, query ListPatientStudiesQuery) ([]StudyResult, error) {
	detail, err := uc.getPatient.Execute(ctx, GetPatientQuery(query))
	if err != nil {
		return nil, err
	}
	return detail.Studies, nil
}
