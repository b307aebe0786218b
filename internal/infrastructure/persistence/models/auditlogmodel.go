package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"dicomdesk/internal/shared/constants"
)

// AuditLogModel is the GORM model for the audit_logs table
type AuditLogModel struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Timestamp    time.Time      `gorm:"not null;index;autoCreateTime"`
	UserID       *uuid.UUID     `gorm:"type:uuid"`
	UserRole     *string        `gorm:"type:varchar(50)"`
	ActionType   string         `gorm:"type:varchar(100);not null;index"`
	ResourceType string         `gorm:"type:varchar(100);not null"`
	ResourceID   *string        `gorm:"type:varchar(100)"`
	Details      datatypes.JSON `gorm:""`
	IPAddress    *string        `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return constants.TableAuditLogs
}
