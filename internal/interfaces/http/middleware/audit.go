package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dicomdesk/internal/domain/audit"
	"dicomdesk/internal/shared/constants"
)

var auditedMethods = map[string]string{
	"POST":   "create",
	"PUT":    "update",
	"PATCH":  "update",
	"DELETE": "delete",
}

// Audit records every successful mutating request to the audit trail.
// Recording is fire-and-forget; a recorder failure never affects the request.
// Must run after the auth middleware so the caller identity is available.
func Audit(recorder audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action, ok := auditedMethods[c.Request.Method]
		if !ok {
			return
		}
		if c.Writer.Status() >= 400 {
			return
		}

		resourceType, resourceID := parseResourcePath(c.Request.URL.Path)

		entry := audit.Entry{
			UserRole:     primaryRole(c),
			ActionType:   action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Details: map[string]any{
				"status_code": c.Writer.Status(),
				"path":        c.Request.URL.Path,
			},
			IPAddress: c.ClientIP(),
		}
		if id, err := uuid.Parse(UserID(c)); err == nil {
			entry.UserID = &id
		}

		recorder.Record(c.Request.Context(), entry)
	}
}

// parseResourcePath extracts (resource_type, resource_id) from a URL path.
// A leading "api" segment is skipped.
func parseResourcePath(path string) (string, string) {
	var parts []string
	for _, p := range strings.Split(strings.Trim(path, "/"), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 && parts[0] == "api" {
		parts = parts[1:]
	}

	resourceType := "unknown"
	if len(parts) > 0 {
		resourceType = parts[0]
	}
	resourceID := ""
	if len(parts) > 1 {
		resourceID = parts[1]
	}
	return resourceType, resourceID
}

func primaryRole(c *gin.Context) string {
	value, exists := c.Get(constants.ContextKeyRoles)
	if !exists {
		return ""
	}
	roles, ok := value.([]string)
	if !ok || len(roles) == 0 {
		return ""
	}
	if HasRole(c, constants.RoleAdmin) {
		return constants.RoleAdmin
	}
	return roles[0]
}
