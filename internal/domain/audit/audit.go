// Package audit defines the audit-trail model and the fire-and-forget
// recording contract. Recording failures must never affect the operation
// that triggered them.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action types recorded by the session lifecycle and reclamation loops.
const (
	ActionSessionTerminated  = "session_terminated"
	ActionSessionIdleWarning = "session_idle_warning"
	ActionSessionOrphan      = "session_orphan_cleanup"
)

// Resource types referenced by audit entries.
const (
	ResourceSessions    = "sessions"
	ResourcePatients    = "patients"
	ResourceDoctors     = "doctors"
	ResourceAssignments = "assignments"
)

// Entry is one immutable audit-trail row.
type Entry struct {
	ID           uuid.UUID
	Timestamp    time.Time
	UserID       *uuid.UUID
	UserRole     string
	ActionType   string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	IPAddress    string
}

// Recorder accepts audit entries. Implementations swallow their own failures,
// logging them only.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Repository persists and queries audit entries.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter ListFilter) ([]*Entry, int64, error)
}

// ListFilter narrows audit queries for the reporting endpoints.
type ListFilter struct {
	ActionType   string
	ResourceType string
	ResourceID   string
	Since        *time.Time
	Until        *time.Time
	Page         int
	PageSize     int
}
