package models

import (
	"time"

	"github.com/google/uuid"

	"dicomdesk/internal/shared/constants"
)

// SessionModel is the GORM model for the sessions table
type SessionModel struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DoctorID              uuid.UUID  `gorm:"type:uuid;not null;index"`
	PatientID             uuid.UUID  `gorm:"type:uuid;not null;index"`
	StudyID               *uuid.UUID `gorm:"type:uuid"`
	GuacamoleConnectionID string     `gorm:"type:varchar(255)"`
	RDSSessionID          string     `gorm:"column:rds_session_id;type:varchar(255)"`
	WindowsUser           string     `gorm:"type:varchar(100)"`
	Status                string     `gorm:"type:varchar(20);not null;default:'creating';index"`
	StartedAt             time.Time  `gorm:"not null;autoCreateTime"`
	LastActivityAt        *time.Time `gorm:""`
	EndedAt               *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (SessionModel) TableName() string {
	return constants.TableSessions
}
