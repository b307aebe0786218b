package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"dicomdesk/internal/infrastructure/auth"
	"dicomdesk/internal/shared/constants"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*auth.Claims, error) {
	return f.claims, f.err
}

func authTestRouter(verifier auth.TokenVerifier, requiredRole string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewAuthMiddleware(verifier, logger.NewLogger())

	engine := gin.New()
	handlers := []gin.HandlerFunc{m.RequireAuth()}
	if requiredRole != "" {
		handlers = append(handlers, m.RequireRole(requiredRole))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  UserID(c),
			"username": Username(c),
		})
	})
	engine.GET("/protected", handlers...)
	return engine
}

func doRequest(engine *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	verifier := &fakeVerifier{claims: &auth.Claims{
		Subject:  "kc-user-1",
		Username: "jdoe",
		Roles:    []string{constants.RoleDoctor},
	}}
	engine := authTestRouter(verifier, "")

	rec := doRequest(engine, "Bearer some-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kc-user-1")
	assert.Contains(t, rec.Body.String(), "jdoe")
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	engine := authTestRouter(&fakeVerifier{}, "")

	rec := doRequest(engine, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	engine := authTestRouter(&fakeVerifier{}, "")

	rec := doRequest(engine, "Token abc")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	verifier := &fakeVerifier{err: errors.NewUnauthorizedError("token expired")}
	engine := authTestRouter(verifier, "")

	rec := doRequest(engine, "Bearer expired-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleGatesOnRealmRole(t *testing.T) {
	doctorOnly := &fakeVerifier{claims: &auth.Claims{
		Subject: "kc-user-1",
		Roles:   []string{constants.RoleDoctor},
	}}

	engine := authTestRouter(doctorOnly, constants.RoleAdmin)
	rec := doRequest(engine, "Bearer tok")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := &fakeVerifier{claims: &auth.Claims{
		Subject: "kc-admin-1",
		Roles:   []string{constants.RoleAdmin, constants.RoleDoctor},
	}}
	engine = authTestRouter(admin, constants.RoleAdmin)
	rec = doRequest(engine, "Bearer tok")
	assert.Equal(t, http.StatusOK, rec.Code)
}
