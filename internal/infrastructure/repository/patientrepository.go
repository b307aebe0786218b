package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/infrastructure/persistence/mappers"
	"dicomdesk/internal/infrastructure/persistence/models"
	"dicomdesk/internal/shared/constants"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// PatientRepositoryImpl implements the catalog.PatientRepository interface.
type PatientRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.CatalogMapper
	logger logger.Interface
}

// NewPatientRepository creates a new patient repository instance.
func NewPatientRepository(db *gorm.DB, logger logger.Interface) catalog.PatientRepository {
	return &PatientRepositoryImpl{
		db:     db,
		mapper: mappers.NewCatalogMapper(),
		logger: logger,
	}
}

// Create creates a new patient. A duplicate external patient identifier is a
// conflict error so concurrent ingesters can re-fetch the winner's row.
func (r *PatientRepositoryImpl) Create(ctx context.Context, p *catalog.Patient) error {
	model := r.mapper.PatientToModel(p)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("patient already exists")
		}
		r.logger.Errorw("failed to create patient in database", "error", err)
		return fmt.Errorf("failed to create patient: %w", err)
	}

	return nil
}

// GetByID retrieves a patient by its internal ID.
func (r *PatientRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Patient, error) {
	var model models.PatientModel

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get patient by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return r.mapper.PatientToEntity(&model)
}

// GetByPatientID retrieves a patient by the external subject identifier.
func (r *PatientRepositoryImpl) GetByPatientID(ctx context.Context, patientID string) (*catalog.Patient, error) {
	var model models.PatientModel

	if err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get patient by external identifier", "patient_id", patientID, "error", err)
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return r.mapper.PatientToEntity(&model)
}

// List returns all patients ordered by creation time.
func (r *PatientRepositoryImpl) List(ctx context.Context) ([]*catalog.Patient, error) {
	var patientModels []*models.PatientModel

	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&patientModels).Error; err != nil {
		r.logger.Errorw("failed to list patients", "error", err)
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	return r.mapper.PatientsToEntities(patientModels)
}

// ListAssignedToDoctor returns the patients assigned to a doctor.
func (r *PatientRepositoryImpl) ListAssignedToDoctor(ctx context.Context, doctorID uuid.UUID) ([]*catalog.Patient, error) {
	var patientModels []*models.PatientModel

	err := r.db.WithContext(ctx).
		Joins(fmt.Sprintf("JOIN %s ON %s.patient_id = %s.id",
			constants.TablePatientAssignments, constants.TablePatientAssignments, constants.TablePatients)).
		Where(fmt.Sprintf("%s.doctor_id = ?", constants.TablePatientAssignments), doctorID).
		Order(fmt.Sprintf("%s.created_at DESC", constants.TablePatients)).
		Find(&patientModels).Error
	if err != nil {
		r.logger.Errorw("failed to list patients assigned to doctor", "doctor_id", doctorID, "error", err)
		return nil, fmt.Errorf("failed to list assigned patients: %w", err)
	}

	return r.mapper.PatientsToEntities(patientModels)
}
