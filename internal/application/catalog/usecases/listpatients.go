package usecases

import (
	"context"
	"fmt"
	"strings"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/shared/logger"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

// ListPatientsQuery carries the caller identity and list parameters.
type ListPatientsQuery struct {
	Requester Requester
	Search    string
	Limit     int
	Offset    int
}

// ListPatientsUseCase lists catalog patients visible to the caller.
// Administrators see the whole catalog; doctors see assigned patients only.
type ListPatientsUseCase struct {
	patients catalog.PatientRepository
	studies  catalog.StudyRepository
	doctors  doctor.Repository
	logger   logger.Interface
}

// NewListPatientsUseCase creates a new list patients use case instance.
func NewListPatientsUseCase(
	patients catalog.PatientRepository,
	studies catalog.StudyRepository,
	doctors doctor.Repository,
	logger logger.Interface,
) *ListPatientsUseCase {
	return &ListPatientsUseCase{
		patients: patients,
		studies:  studies,
		doctors:  doctors,
		logger:   logger,
	}
}

// Execute returns one page of visible patients with their study counts.
func (uc *ListPatientsUseCase) Execute(ctx context.Context, query ListPatientsQuery) (*PatientListResult, error) {
	visible, err := visiblePatients(ctx, uc.patients, uc.doctors, query.Requester)
	if err != nil {
		return nil, err
	}

	if search := strings.ToLower(strings.TrimSpace(query.Search)); search != "" {
		filtered := visible[:0]
		for _, p := range visible {
			if strings.Contains(strings.ToLower(p.Name()), search) ||
				strings.Contains(strings.ToLower(p.PatientID()), search) {
				filtered = append(filtered, p)
			}
		}
		visible = filtered
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	total := len(visible)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := visible[offset:end]

	items := make([]PatientResult, 0, len(page))
	for _, p := range page {
		studies, err := uc.studies.ListByPatient(ctx, p.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to count studies: %w", err)
		}
		items = append(items, newPatientResult(p, len(studies)))
	}

	return &PatientListResult{
		Total:  total,
		Items:  items,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// visiblePatients applies the caller's access scope.
func visiblePatients(
	ctx context.Context,
	patients catalog.PatientRepository,
	doctors doctor.Repository,
	requester Requester,
) ([]*catalog.Patient, error) {
	if requester.IsAdmin {
		return patients.List(ctx)
	}

	doc, err := doctors.GetByKeycloakUserID(ctx, requester.KeycloakUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up doctor: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	return patients.ListAssignedToDoctor(ctx, doc.ID())
}
