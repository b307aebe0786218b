package mappers

import (
	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/infrastructure/persistence/models"
)

// DoctorMapper converts between doctor entities and persistence models.
type DoctorMapper interface {
	ToEntity(model *models.DoctorModel) (*doctor.Doctor, error)
	ToModel(entity *doctor.Doctor) *models.DoctorModel
	ToEntities(models []*models.DoctorModel) ([]*doctor.Doctor, error)

	AssignmentToEntity(model *models.PatientAssignmentModel) (*doctor.Assignment, error)
	AssignmentToModel(entity *doctor.Assignment) *models.PatientAssignmentModel
	AssignmentsToEntities(models []*models.PatientAssignmentModel) ([]*doctor.Assignment, error)
}

type doctorMapper struct{}

// NewDoctorMapper creates a new doctor mapper.
func NewDoctorMapper() DoctorMapper {
	return &doctorMapper{}
}

func (m *doctorMapper) ToEntity(model *models.DoctorModel) (*doctor.Doctor, error) {
	if model == nil {
		return nil, nil
	}
	return doctor.ReconstructDoctor(model.ID, model.KeycloakUserID, model.Name, model.Email, model.CreatedAt)
}

func (m *doctorMapper) ToModel(entity *doctor.Doctor) *models.DoctorModel {
	if entity == nil {
		return nil
	}
	return &models.DoctorModel{
		ID:             entity.ID(),
		KeycloakUserID: entity.KeycloakUserID(),
		Name:           entity.Name(),
		Email:          entity.Email(),
		CreatedAt:      entity.CreatedAt(),
	}
}

func (m *doctorMapper) ToEntities(doctorModels []*models.DoctorModel) ([]*doctor.Doctor, error) {
	entities := make([]*doctor.Doctor, 0, len(doctorModels))
	for _, model := range doctorModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (m *doctorMapper) AssignmentToEntity(model *models.PatientAssignmentModel) (*doctor.Assignment, error) {
	if model == nil {
		return nil, nil
	}
	return doctor.ReconstructAssignment(model.ID, model.PatientID, model.DoctorID, model.AssignedBy, model.AssignedAt)
}

func (m *doctorMapper) AssignmentToModel(entity *doctor.Assignment) *models.PatientAssignmentModel {
	if entity == nil {
		return nil
	}
	return &models.PatientAssignmentModel{
		ID:         entity.ID(),
		PatientID:  entity.PatientID(),
		DoctorID:   entity.DoctorID(),
		AssignedBy: entity.AssignedBy(),
		AssignedAt: entity.AssignedAt(),
	}
}

func (m *doctorMapper) AssignmentsToEntities(assignmentModels []*models.PatientAssignmentModel) ([]*doctor.Assignment, error) {
	entities := make([]*doctor.Assignment, 0, len(assignmentModels))
	for _, model := range assignmentModels {
		entity, err := m.AssignmentToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
