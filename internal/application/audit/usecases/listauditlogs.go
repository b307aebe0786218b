// Package usecases implements audit-trail reporting operations.
package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/audit"
	"dicomdesk/internal/shared/logger"
)

// AuditLogResult is the API shape of one audit entry.
type AuditLogResult struct {
	ID           uuid.UUID      `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	UserID       *uuid.UUID     `json:"user_id,omitempty"`
	UserRole     string         `json:"user_role,omitempty"`
	ActionType   string         `json:"action_type"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
}

// AuditLogListResult is one page of audit entries.
type AuditLogListResult struct {
	Total    int64            `json:"total"`
	Items    []AuditLogResult `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

func newAuditLogResult(e *audit.Entry) AuditLogResult {
	return AuditLogResult{
		ID:           e.ID,
		Timestamp:    e.Timestamp,
		UserID:       e.UserID,
		UserRole:     e.UserRole,
		ActionType:   e.ActionType,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Details:      e.Details,
		IPAddress:    e.IPAddress,
	}
}

func newAuditLogResults(entries []*audit.Entry) []AuditLogResult {
	results := make([]AuditLogResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, newAuditLogResult(e))
	}
	return results
}

// ListAuditLogsQuery narrows the audit listing.
type ListAuditLogsQuery struct {
	ActionType   string
	ResourceType string
	ResourceID   string
	Since        *time.Time
	Until        *time.Time
	Page         int
	PageSize     int
}

// ListAuditLogsUseCase pages through the audit trail, newest first.
type ListAuditLogsUseCase struct {
	auditLogs audit.Repository
	logger    logger.Interface
}

// NewListAuditLogsUseCase creates a new list audit logs use case instance.
func NewListAuditLogsUseCase(auditLogs audit.Repository, logger logger.Interface) *ListAuditLogsUseCase {
	return &ListAuditLogsUseCase{auditLogs: auditLogs, logger: logger}
}

// Execute returns one page of audit entries and the total match count.
func (uc *ListAuditLogsUseCase) Execute(ctx context.Context, query ListAuditLogsQuery) (*AuditLogListResult, error) {
	filter := audit.ListFilter{
		ActionType:   query.ActionType,
		ResourceType: query.ResourceType,
		ResourceID:   query.ResourceID,
		Since:        query.Since,
		Until:        query.Until,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}

	entries, total, err := uc.auditLogs.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = len(entries)
	}

	return &AuditLogListResult{
		Total:    total,
		Items:    newAuditLogResults(entries),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// ExportAuditLogsUseCase drains every entry matching the filter for CSV
// export, paging through the repository.
type ExportAuditLogsUseCase struct {
	auditLogs audit.Repository
	logger    logger.Interface
}

// NewExportAuditLogsUseCase creates a new export audit logs use case instance.
func NewExportAuditLogsUseCase(auditLogs audit.Repository, logger logger.Interface) *ExportAuditLogsUseCase {
	return &ExportAuditLogsUseCase{auditLogs: auditLogs, logger: logger}
}

// Execute returns all matching audit entries, newest first.
func (uc *ExportAuditLogsUseCase) Execute(ctx context.Context, query ListAuditLogsQuery) ([]AuditLogResult, error) {
	filter := audit.ListFilter{
		ActionType:   query.ActionType,
		ResourceType: query.ResourceType,
		ResourceID:   query.ResourceID,
		Since:        query.Since,
		Until:        query.Until,
		PageSize:     200,
	}

	var all []AuditLogResult
	for page := 1; ; page++ {
		filter.Page = page
		entries, total, err := uc.auditLogs.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, newAuditLogResults(entries)...)
		if len(entries) == 0 || int64(len(all)) >= total {
			break
		}
	}
	return all, nil
}
