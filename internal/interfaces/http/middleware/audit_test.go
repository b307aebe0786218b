package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicomdesk/internal/domain/audit"
	"dicomdesk/internal/shared/constants"
)

type captureRecorder struct {
	entries []audit.Entry
}

func (r *captureRecorder) Record(_ context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

func auditTestRouter(recorder audit.Recorder, identity gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	if identity != nil {
		engine.Use(identity)
	}
	engine.Use(Audit(recorder))
	engine.GET("/api/patients", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/api/assignments", func(c *gin.Context) { c.Status(http.StatusCreated) })
	engine.POST("/api/sessions", func(c *gin.Context) { c.Status(http.StatusConflict) })
	engine.DELETE("/api/assignments/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return engine
}

func TestAuditSkipsReads(t *testing.T) {
	recorder := &captureRecorder{}
	engine := auditTestRouter(recorder, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, recorder.entries)
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	recorder := &captureRecorder{}
	engine := auditTestRouter(recorder, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, recorder.entries)
}

func TestAuditRecordsSuccessfulMutation(t *testing.T) {
	userID := uuid.New()
	recorder := &captureRecorder{}
	identity := func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID.String())
		c.Set(constants.ContextKeyRoles, []string{constants.RoleDoctor, constants.RoleAdmin})
		c.Next()
	}
	engine := auditTestRouter(recorder, identity)

	req := httptest.NewRequest(http.MethodPost, "/api/assignments", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, "create", entry.ActionType)
	assert.Equal(t, "assignments", entry.ResourceType)
	assert.Empty(t, entry.ResourceID)
	assert.Equal(t, constants.RoleAdmin, entry.UserRole)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)
	assert.Equal(t, http.StatusCreated, entry.Details["status_code"])
}

func TestAuditRecordsResourceIDFromPath(t *testing.T) {
	recorder := &captureRecorder{}
	engine := auditTestRouter(recorder, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/assignments/abc-123", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, "delete", entry.ActionType)
	assert.Equal(t, "assignments", entry.ResourceType)
	assert.Equal(t, "abc-123", entry.ResourceID)
	assert.Nil(t, entry.UserID)
}

func TestParseResourcePath(t *testing.T) {
	tests := []struct {
		path         string
		resourceType string
		resourceID   string
	}{
		{"/api/sessions", "sessions", ""},
		{"/api/sessions/42", "sessions", "42"},
		{"/api/sessions/42/extend", "sessions", "42"},
		{"/health", "health", ""},
		{"/", "unknown", ""},
	}
	for _, tt := range tests {
		resourceType, resourceID := parseResourcePath(tt.path)
		assert.Equal(t, tt.resourceType, resourceType, tt.path)
		assert.Equal(t, tt.resourceID, resourceID, tt.path)
	}
}
