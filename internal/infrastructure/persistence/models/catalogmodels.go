package models

import (
	"time"

	"github.com/google/uuid"

	"dicomdesk/internal/shared/constants"
)

// PatientModel is the GORM model for the patients table. PatientID is the
// external subject identifier carried in imaging files.
type PatientModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM
func (PatientModel) TableName() string {
	return constants.TablePatients
}

// StudyModel is the GORM model for the studies table. StudyInstanceUID is
// the catalog-wide deduplication key.
type StudyModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID          uuid.UUID `gorm:"type:uuid;not null;index"`
	StudyInstanceUID   string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	StudyDate          time.Time `gorm:"type:date;not null"`
	Modality           string    `gorm:"type:varchar(16);not null"`
	ReferringPhysician *string   `gorm:"type:varchar(255)"`
	StudyDescription   *string   `gorm:"type:varchar(255)"`
	SeriesDescription  *string   `gorm:"type:varchar(255)"`
	FilePath           string    `gorm:"type:varchar(1024);not null"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM
func (StudyModel) TableName() string {
	return constants.TableStudies
}
