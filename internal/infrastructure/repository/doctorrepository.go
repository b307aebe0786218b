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

// DoctorRepositoryImpl implements the doctor.Repository interface.
type DoctorRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.DoctorMapper
	logger logger.Interface
}

// NewDoctorRepository creates a new doctor repository instance.
func NewDoctorRepository(db *gorm.DB, logger logger.Interface) doctor.Repository {
	return &DoctorRepositoryImpl{
		db:     db,
		mapper: mappers.NewDoctorMapper(),
		logger: logger,
	}
}

// Create creates a new doctor record.
func (r *DoctorRepositoryImpl) Create(ctx context.Context, d *doctor.Doctor) error {
	model := r.mapper.ToModel(d)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("doctor already exists")
		}
		r.logger.Errorw("failed to create doctor in database", "error", err)
		return fmt.Errorf("failed to create doctor: %w", err)
	}

	r.logger.Infow("doctor created", "id", model.ID, "email", model.Email)
	return nil
}

// GetByID retrieves a doctor by its ID.
func (r *DoctorRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var model models.DoctorModel

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get doctor by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// GetByKeycloakUserID retrieves the doctor mapped to an external identity.
func (r *DoctorRepositoryImpl) GetByKeycloakUserID(ctx context.Context, keycloakUserID string) (*doctor.Doctor, error) {
	var model models.DoctorModel

	if err := r.db.WithContext(ctx).Where("keycloak_user_id = ?", keycloakUserID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get doctor by external identity", "keycloak_user_id", keycloakUserID, "error", err)
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// List returns all doctors ordered by creation time.
func (r *DoctorRepositoryImpl) List(ctx context.Context) ([]*doctor.Doctor, error) {
	var doctorModels []*models.DoctorModel

	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&doctorModels).Error; err != nil {
		r.logger.Errorw("failed to list doctors", "error", err)
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	return r.mapper.ToEntities(doctorModels)
}
