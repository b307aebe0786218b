package mappers

import (
	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/infrastructure/persistence/models"
)

// CatalogMapper converts between catalog entities and persistence models.
type CatalogMapper interface {
	PatientToEntity(model *models.PatientModel) (*catalog.Patient, error)
	PatientToModel(entity *catalog.Patient) *models.PatientModel
	PatientsToEntities(models []*models.PatientModel) ([]*catalog.Patient, error)

	StudyToEntity(model *models.StudyModel) (*catalog.Study, error)
	StudyToModel(entity *catalog.Study) *models.StudyModel
	StudiesToEntities(models []*models.StudyModel) ([]*catalog.Study, error)
}

type catalogMapper struct{}

// NewCatalogMapper creates a new catalog mapper.
func NewCatalogMapper() CatalogMapper {
	return &catalogMapper{}
}

func (m *catalogMapper) PatientToEntity(model *models.PatientModel) (*catalog.Patient, error) {
	if model == nil {
		return nil, nil
	}
	return catalog.ReconstructPatient(model.ID, model.PatientID, model.Name, model.CreatedAt)
}

func (m *catalogMapper) PatientToModel(entity *catalog.Patient) *models.PatientModel {
	if entity == nil {
		return nil
	}
	return &models.PatientModel{
		ID:        entity.ID(),
		PatientID: entity.PatientID(),
		Name:      entity.Name(),
		CreatedAt: entity.CreatedAt(),
	}
}

func (m *catalogMapper) PatientsToEntities(patientModels []*models.PatientModel) ([]*catalog.Patient, error) {
	entities := make([]*catalog.Patient, 0, len(patientModels))
	for _, model := range patientModels {
		entity, err := m.PatientToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (m *catalogMapper) StudyToEntity(model *models.StudyModel) (*catalog.Study, error) {
	if model == nil {
		return nil, nil
	}
	return catalog.ReconstructStudy(
		model.ID,
		model.PatientID,
		model.StudyInstanceUID,
		model.StudyDate,
		model.Modality,
		derefString(model.ReferringPhysician),
		derefString(model.StudyDescription),
		derefString(model.SeriesDescription),
		model.FilePath,
		model.CreatedAt,
	)
}

func (m *catalogMapper) StudyToModel(entity *catalog.Study) *models.StudyModel {
	if entity == nil {
		return nil
	}
	return &models.StudyModel{
		ID:                 entity.ID(),
		PatientID:          entity.PatientID(),
		StudyInstanceUID:   entity.StudyInstanceUID(),
		StudyDate:          entity.StudyDate(),
		Modality:           entity.Modality(),
		ReferringPhysician: nilIfEmpty(entity.ReferringPhysician()),
		StudyDescription:   nilIfEmpty(entity.StudyDescription()),
		SeriesDescription:  nilIfEmpty(entity.SeriesDescription()),
		FilePath:           entity.FilePath(),
		CreatedAt:          entity.CreatedAt(),
	}
}

func (m *catalogMapper) StudiesToEntities(studyModels []*models.StudyModel) ([]*catalog.Study, error) {
	entities := make([]*catalog.Study, 0, len(studyModels))
	for _, model := range studyModels {
		entity, err := m.StudyToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
