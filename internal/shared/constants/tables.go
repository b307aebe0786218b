// Package constants defines shared constant values used across layers.
package constants

// Database table names.
const (
	TableSessions           = "sessions"
	TablePatients           = "patients"
	TableStudies            = "studies"
	TableDoctors            = "doctors"
	TablePatientAssignments = "patient_assignments"
	TableAuditLogs          = "audit_logs"
)

// Gin context keys set by the auth middleware.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserName = "user_name"
	ContextKeyRoles    = "user_roles"
)

// Role names carried in Keycloak realm-access claims.
const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
)
