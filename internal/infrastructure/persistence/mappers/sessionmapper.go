// Package mappers converts between domain entities and persistence models.
package mappers

import (
	"fmt"

	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/infrastructure/persistence/models"
)

// SessionMapper handles the conversion between session entities and models.
type SessionMapper interface {
	ToEntity(model *models.SessionModel) (*session.Session, error)
	ToModel(entity *session.Session) *models.SessionModel
	ToEntities(models []*models.SessionModel) ([]*session.Session, error)
}

type sessionMapper struct{}

// NewSessionMapper creates a new session mapper.
func NewSessionMapper() SessionMapper {
	return &sessionMapper{}
}

func (m *sessionMapper) ToEntity(model *models.SessionModel) (*session.Session, error) {
	if model == nil {
		return nil, nil
	}

	status := session.Status(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid session status: %s", model.Status)
	}

	return session.ReconstructSession(
		model.ID,
		model.DoctorID,
		model.PatientID,
		model.StudyID,
		model.GuacamoleConnectionID,
		model.RDSSessionID,
		model.WindowsUser,
		status,
		model.StartedAt,
		model.LastActivityAt,
		model.EndedAt,
	)
}

func (m *sessionMapper) ToModel(entity *session.Session) *models.SessionModel {
	if entity == nil {
		return nil
	}

	return &models.SessionModel{
		ID:                    entity.ID(),
		DoctorID:              entity.DoctorID(),
		PatientID:             entity.PatientID(),
		StudyID:               entity.StudyID(),
		GuacamoleConnectionID: entity.GuacamoleConnectionID(),
		RDSSessionID:          entity.RDSSessionID(),
		WindowsUser:           entity.WindowsUser(),
		Status:                string(entity.Status()),
		StartedAt:             entity.StartedAt(),
		LastActivityAt:        entity.LastActivityAt(),
		EndedAt:               entity.EndedAt(),
	}
}

func (m *sessionMapper) ToEntities(sessionModels []*models.SessionModel) ([]*session.Session, error) {
	entities := make([]*session.Session, 0, len(sessionModels))
	for _, model := range sessionModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
