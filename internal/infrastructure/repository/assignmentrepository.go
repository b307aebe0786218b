package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/infrastructure/persistence/mappers"
	"dicomdesk/internal/infrastructure/persistence/models"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// AssignmentRepositoryImpl implements the doctor.AssignmentRepository interface.
type AssignmentRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.DoctorMapper
	logger logger.Interface
}

// NewAssignmentRepository creates a new assignment repository instance.
func NewAssignmentRepository(db *gorm.DB, logger logger.Interface) doctor.AssignmentRepository {
	return &AssignmentRepositoryImpl{
		db:     db,
		mapper: mappers.NewDoctorMapper(),
		logger: logger,
	}
}

// Create inserts an assignment edge. A duplicate (patient, doctor) pair is a
// conflict error.
func (r *AssignmentRepositoryImpl) Create(ctx context.Context, a *doctor.Assignment) error {
	model := r.mapper.AssignmentToModel(a)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("patient is already assigned to this doctor")
		}
		r.logger.Errorw("failed to create assignment in database", "error", err)
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	r.logger.Infow("assignment created", "id", model.ID, "patient_id", model.PatientID, "doctor_id", model.DoctorID)
	return nil
}

// Delete removes an assignment edge.
func (r *AssignmentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PatientAssignmentModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete assignment", "id", id, "error", result.Error)
		return fmt.Errorf("failed to delete assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("assignment not found")
	}

	return nil
}

// List returns assignment edges matching the filter, newest first.
func (r *AssignmentRepositoryImpl) List(ctx context.Context, filter doctor.AssignmentFilter) ([]*doctor.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.PatientAssignmentModel{})
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	}

	var assignmentModels []*models.PatientAssignmentModel
	if err := query.Order("assigned_at DESC").Find(&assignmentModels).Error; err != nil {
		r.logger.Errorw("failed to list assignments", "error", err)
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	return r.mapper.AssignmentsToEntities(assignmentModels)
}
