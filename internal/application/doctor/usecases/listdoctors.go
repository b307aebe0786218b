// Package usecases implements doctor directory and assignment management
// operations for the administrative surface.
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/shared/logger"
)

// DoctorResult is the API shape of a doctor record.
type DoctorResult struct {
	ID             uuid.UUID `json:"id"`
	KeycloakUserID string    `json:"keycloak_user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
}

func newDoctorResult(d *doctor.Doctor) DoctorResult {
	return DoctorResult{
		ID:             d.ID(),
		KeycloakUserID: d.KeycloakUserID(),
		Name:           d.Name(),
		Email:          d.Email(),
		CreatedAt:      d.CreatedAt(),
	}
}

// ListDoctorsUseCase lists all doctor records.
type ListDoctorsUseCase struct {
	doctors doctor.Repository
	logger  logger.Interface
}

// NewListDoctorsUseCase creates a new list doctors use case instance.
func NewListDoctorsUseCase(doctors doctor.Repository, logger logger.Interface) *ListDoctorsUseCase {
	return &ListDoctorsUseCase{doctors: doctors, logger: logger}
}

// Execute returns every doctor record.
func (uc *ListDoctorsUseCase) Execute(ctx context.Context) ([]DoctorResult, error) {
	listed, err := uc.doctors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	results := make([]DoctorResult, 0, len(listed))
	for _, d := range listed {
		results = append(results, newDoctorResult(d))
	}
	return results, nil
}
