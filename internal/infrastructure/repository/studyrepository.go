package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/infrastructure/persistence/mappers"
	"dicomdesk/internal/infrastructure/persistence/models"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// StudyRepositoryImpl implements the catalog.StudyRepository interface.
type StudyRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.CatalogMapper
	logger logger.Interface
}

// NewStudyRepository creates a new study repository instance.
func NewStudyRepository(db *gorm.DB, logger logger.Interface) catalog.StudyRepository {
	return &StudyRepositoryImpl{
		db:     db,
		mapper: mappers.NewCatalogMapper(),
		logger: logger,
	}
}

// Create creates a new study. A duplicate study instance UID is a conflict
// error so concurrent ingesters can report the file as a duplicate.
func (r *StudyRepositoryImpl) Create(ctx context.Context, s *catalog.Study) error {
	model := r.mapper.StudyToModel(s)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("study already exists")
		}
		r.logger.Errorw("failed to create study in database", "error", err)
		return fmt.Errorf("failed to create study: %w", err)
	}

	return nil
}

// GetByID retrieves a study by its ID.
func (r *StudyRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Study, error) {
	var model models.StudyModel

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get study by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get study: %w", err)
	}

	return r.mapper.StudyToEntity(&model)
}

// GetByStudyInstanceUID retrieves a study by its study instance UID.
func (r *StudyRepositoryImpl) GetByStudyInstanceUID(ctx context.Context, uid string) (*catalog.Study, error) {
	var model models.StudyModel

	if err := r.db.WithContext(ctx).Where("study_instance_uid = ?", uid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get study by instance UID", "study_instance_uid", uid, "error", err)
		return nil, fmt.Errorf("failed to get study: %w", err)
	}

	return r.mapper.StudyToEntity(&model)
}

// ListByPatient returns the patient's studies, newest study date first.
func (r *StudyRepositoryImpl) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*catalog.Study, error) {
	var studyModels []*models.StudyModel

	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("study_date DESC").
		Find(&studyModels).Error
	if err != nil {
		r.logger.Errorw("failed to list studies by patient", "patient_id", patientID, "error", err)
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}

	return r.mapper.StudiesToEntities(studyModels)
}
