package models

import (
	"time"

	"github.com/google/uuid"

	"dicomdesk/internal/shared/constants"
)

// DoctorModel is the GORM model for the doctors table
type DoctorModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	KeycloakUserID string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name           string    `gorm:"type:varchar(255)"`
	Email          string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM
func (DoctorModel) TableName() string {
	return constants.TableDoctors
}

// PatientAssignmentModel is the GORM model for the patient_assignments table.
// The (patient, doctor) pair is unique.
type PatientAssignmentModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PatientID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_assignments_patient_doctor"`
	DoctorID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_assignments_patient_doctor"`
	AssignedBy *uuid.UUID `gorm:"type:uuid"`
	AssignedAt time.Time  `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM
func (PatientAssignmentModel) TableName() string {
	return constants.TablePatientAssignments
}
