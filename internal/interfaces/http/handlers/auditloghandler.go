package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	auditusecases "dicomdesk/internal/application/audit/usecases"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
	"dicomdesk/internal/shared/utils"
)

// AuditLogHandler exposes audit-trail reporting. Admin-only.
type AuditLogHandler struct {
	listAuditLogsUC   *auditusecases.ListAuditLogsUseCase
	exportAuditLogsUC *auditusecases.ExportAuditLogsUseCase
	logger            logger.Interface
}

func NewAuditLogHandler(
	listAuditLogsUC *auditusecases.ListAuditLogsUseCase,
	exportAuditLogsUC *auditusecases.ExportAuditLogsUseCase,
) *AuditLogHandler {
	return &AuditLogHandler{
		listAuditLogsUC:   listAuditLogsUC,
		exportAuditLogsUC: exportAuditLogsUC,
		logger:            logger.NewLogger(),
	}
}

func auditQueryFrom(c *gin.Context) (auditusecases.ListAuditLogsQuery, error) {
	query := auditusecases.ListAuditLogsQuery{
		ActionType:   c.Query("action_type"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
	}

	if raw := c.Query("date_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, errors.NewValidationError("invalid date_from, expected RFC 3339")
		}
		query.Since = &t
	}
	if raw := c.Query("date_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, errors.NewValidationError("invalid date_to, expected RFC 3339")
		}
		query.Until = &t
	}

	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	return query, nil
}

func (h *AuditLogHandler) ListAuditLogs(c *gin.Context) {
	query, err := auditQueryFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.listAuditLogsUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ExportAuditLogs streams the matching audit entries as CSV.
func (h *AuditLogHandler) ExportAuditLogs(c *gin.Context) {
	query, err := auditQueryFrom(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	entries, err := h.exportAuditLogsUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=audit_logs.csv")
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{
		"id", "timestamp", "user_id", "user_role", "action_type",
		"resource_type", "resource_id", "ip_address", "details",
	})

	for _, e := range entries {
		userID := ""
		if e.UserID != nil {
			userID = e.UserID.String()
		}
		details := ""
		if len(e.Details) > 0 {
			if raw, err := json.Marshal(e.Details); err == nil {
				details = string(raw)
			}
		}
		if err := writer.Write([]string{
			e.ID.String(),
			e.Timestamp.Format(time.RFC3339),
			userID,
			e.UserRole,
			e.ActionType,
			e.ResourceType,
			e.ResourceID,
			e.IPAddress,
			details,
		}); err != nil {
			h.logger.Warnw("audit export aborted", "error", err)
			return
		}
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		h.logger.Warnw("audit export flush failed", "error", fmt.Errorf("csv write: %w", err))
	}
}
