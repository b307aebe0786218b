package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"dicomdesk/internal/domain/audit"
	"dicomdesk/internal/infrastructure/persistence/models"
	"dicomdesk/internal/shared/goroutine"
	"dicomdesk/internal/shared/logger"
)

// AuditLogRepositoryImpl implements the audit.Repository interface.
type AuditLogRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewAuditLogRepository creates a new audit log repository instance.
func NewAuditLogRepository(db *gorm.DB, logger logger.Interface) audit.Repository {
	return &AuditLogRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists one audit entry.
func (r *AuditLogRepositoryImpl) Create(ctx context.Context, entry *audit.Entry) error {
	model, err := r.toModel(entry)
	if err != nil {
		return fmt.Errorf("failed to map audit entry: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create audit log in database", "action", entry.ActionType, "error", err)
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

// List queries audit entries newest first with total count for pagination.
func (r *AuditLogRepositoryImpl) List(ctx context.Context, filter audit.ListFilter) ([]*audit.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLogModel{})

	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Since != nil {
		query = query.Where("timestamp >= ?", filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("timestamp <= ?", filter.Until)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count audit logs", "error", err)
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var logModels []*models.AuditLogModel
	err := query.Order("timestamp DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logModels).Error
	if err != nil {
		r.logger.Errorw("failed to list audit logs", "error", err)
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	entries := make([]*audit.Entry, 0, len(logModels))
	for _, model := range logModels {
		entry, err := r.toEntry(model)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to map audit log: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, total, nil
}

func (r *AuditLogRepositoryImpl) toModel(entry *audit.Entry) (*models.AuditLogModel, error) {
	id := entry.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	var details datatypes.JSON
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = datatypes.JSON(raw)
	}

	return &models.AuditLogModel{
		ID:           id,
		Timestamp:    timestamp,
		UserID:       entry.UserID,
		UserRole:     nilIfEmptyString(entry.UserRole),
		ActionType:   entry.ActionType,
		ResourceType: entry.ResourceType,
		ResourceID:   nilIfEmptyString(entry.ResourceID),
		Details:      details,
		IPAddress:    nilIfEmptyString(entry.IPAddress),
	}, nil
}

func (r *AuditLogRepositoryImpl) toEntry(model *models.AuditLogModel) (*audit.Entry, error) {
	var details map[string]any
	if len(model.Details) > 0 {
		if err := json.Unmarshal(model.Details, &details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
		}
	}

	return &audit.Entry{
		ID:           model.ID,
		Timestamp:    model.Timestamp,
		UserID:       model.UserID,
		UserRole:     derefStringValue(model.UserRole),
		ActionType:   model.ActionType,
		ResourceType: model.ResourceType,
		ResourceID:   derefStringValue(model.ResourceID),
		Details:      details,
		IPAddress:    derefStringValue(model.IPAddress),
	}, nil
}

func nilIfEmptyString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AsyncAuditRecorder implements audit.Recorder by writing entries on a
// background goroutine. Failures are logged and swallowed so recording never
// affects the triggering operation.
type AsyncAuditRecorder struct {
	repo    audit.Repository
	timeout time.Duration
	logger  logger.Interface
}

// NewAsyncAuditRecorder creates a fire-and-forget audit recorder.
func NewAsyncAuditRecorder(repo audit.Repository, logger logger.Interface) *AsyncAuditRecorder {
	return &AsyncAuditRecorder{
		repo:    repo,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Record persists the entry asynchronously, detached from the caller's
// context so cancellation of the request does not lose the entry.
func (r *AsyncAuditRecorder) Record(_ context.Context, entry audit.Entry) {
	goroutine.SafeGo(r.logger, "audit-record", func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.repo.Create(ctx, &entry); err != nil {
			r.logger.Errorw("failed to record audit entry",
				"action", entry.ActionType,
				"resource", entry.ResourceType,
				"error", err,
			)
		}
	})
}
