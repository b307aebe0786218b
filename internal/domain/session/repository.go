package session

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines transactional persistence for sessions. Sessions are
// never deleted, only terminalized.
type Repository interface {
	// Create persists a new session row. The insert must be committed before
	// returning so concurrent limit checks observe it.
	Create(ctx context.Context, s *Session) error

	// GetByID returns the session or (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// Update persists the session's mutable fields.
	Update(ctx context.Context, s *Session) error

	// FindNonTerminalByDoctor returns the doctor's session in a non-terminal
	// status, or (nil, nil) when the doctor has none.
	FindNonTerminalByDoctor(ctx context.Context, doctorID uuid.UUID) (*Session, error)

	// CountNonTerminal returns the number of sessions counting against the
	// global concurrency cap.
	CountNonTerminal(ctx context.Context) (int64, error)

	// ListReclaimable returns sessions in active or idle_warning status with
	// no end timestamp, the working set of the reclamation loops.
	ListReclaimable(ctx context.Context) ([]*Session, error)

	// ListAll returns every session, newest first.
	ListAll(ctx context.Context) ([]*Session, error)

	// ListByDoctor returns the doctor's sessions, newest first.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Session, error)
}
