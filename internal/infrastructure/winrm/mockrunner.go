package winrm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/logger"
)

// MockRunner is a deterministic in-memory session.RemoteRunner used when no
// RDS host is configured. It simulates a short network delay and hands out
// sequential RDS session identifiers.
type MockRunner struct {
	mu      sync.Mutex
	counter int
	latency time.Duration
	logger  logger.Interface
}

// NewMockRunner creates the in-memory runner.
func NewMockRunner(log logger.Interface) *MockRunner {
	return &MockRunner{
		latency: 100 * time.Millisecond,
		logger:  log.Named("winrm.mock"),
	}
}

// RunOperation simulates one provisioning script.
func (r *MockRunner) RunOperation(ctx context.Context, name string, args map[string]string) (string, error) {
	select {
	case <-time.After(r.latency):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	r.logger.Debugw("simulated remote operation", "operation", name)

	switch name {
	case session.OpCreateRDSSession:
		r.mu.Lock()
		r.counter++
		id := r.counter
		r.mu.Unlock()
		return fmt.Sprintf("RDS-SESSION-%05d", id), nil
	case session.OpLaunchViewer:
		return "PID-12345", nil
	case session.OpCleanupSession:
		return "OK", nil
	}

	return "", nil
}

var _ session.RemoteRunner = (*MockRunner)(nil)
