package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"dicomdesk/internal/application/session/testutil"
	"dicomdesk/internal/domain/audit"
	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/logger"
)

var reclamationCfg = ReclamationConfig{
	IdleTimeout: 15 * time.Minute,
	HardTimeout: time.Hour,
}

func reclaimableSession(t *testing.T, repo *testutil.MockSessionRepository, status session.Status, totalAge, idleAge time.Duration) *session.Session {
	t.Helper()

	now := time.Now().UTC()
	started := now.Add(-totalAge)
	lastActivity := now.Add(-idleAge)

	s, err := session.ReconstructSession(
		uuid.New(), uuid.New(), uuid.New(), nil,
		"conn-1", "RDS-SESSION-00001", "dtx_user_test",
		status, started, &lastActivity, nil,
	)
	if err != nil {
		t.Fatalf("failed to reconstruct session: %v", err)
	}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("failed to store session: %v", err)
	}
	return s
}

func TestTimeoutSweep_HardTimeoutTerminates(t *testing.T) {
	sessions := testutil.NewMockSessionRepository()
	gateway := testutil.NewMockDisplayGateway()
	recorder := testutil.NewMockAuditRecorder()

	// Past hard timeout and also idle: hard timeout must win.
	s := reclaimableSession(t, sessions, session.StatusActive, 2*time.Hour, 30*time.Minute)

	job := NewTimeoutSweepJob(sessions, gateway, recorder, reclamationCfg, logger.NewLogger())
	count, err := job.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 processed session, got %d", count)
	}

	stored, _ := sessions.GetByID(context.Background(), s.ID())
	if stored.Status() != session.StatusTerminated || stored.EndedAt() == nil {
		t.Errorf("expected terminated session, got %s", stored.Status())
	}
	if deleted := gateway.Deleted(); len(deleted) != 1 || deleted[0] != "conn-1" {
		t.Errorf("expected connection deletion, got %v", deleted)
	}
	if recorder.CountAction(audit.ActionSessionTerminated) != 1 {
		t.Errorf("expected session_terminated audit entry, got %v", recorder.Entries())
	}
}

func TestTimeoutSweep_IdleFlagsExactlyOnce(t *testing.T) {
	sessions := testutil.NewMockSessionRepository()
	gateway := testutil.NewMockDisplayGateway()
	recorder := testutil.NewMockAuditRecorder()

	s := reclaimableSession(t, sessions, session.StatusActive, 30*time.Minute, 20*time.Minute)

	job := NewTimeoutSweepJob(sessions, gateway, recorder, reclamationCfg, logger.NewLogger())
	if _, err := job.Execute(context.Background()); err != nil {
		t.Fatalf("first Execute() unexpected error = %v", err)
	}

	stored, _ := sessions.GetByID(context.Background(), s.ID())
	if stored.Status() != session.StatusIdleWarning {
		t.Fatalf("expected idle_warning status, got %s", stored.Status())
	}

	// A second tick sees the session already warned and does nothing.
	count, err := job.Execute(context.Background())
	if err != nil {
		t.Fatalf("second Execute() unexpected error = %v", err)
	}
	if count != 0 {
		t.Errorf("expected no processing on repeat tick, got %d", count)
	}
	if recorder.CountAction(audit.ActionSessionIdleWarning) != 1 {
		t.Errorf("expected exactly one idle warning audit entry")
	}
	if len(gateway.Deleted()) != 0 {
		t.Errorf("idle handling must not touch remote resources, got %v", gateway.Deleted())
	}
}

func TestTimeoutSweep_FreshSessionUntouched(t *testing.T) {
	sessions := testutil.NewMockSessionRepository()
	recorder := testutil.NewMockAuditRecorder()

	s := reclaimableSession(t, sessions, session.StatusActive, 5*time.Minute, time.Minute)

	job := NewTimeoutSweepJob(sessions, testutil.NewMockDisplayGateway(), recorder, reclamationCfg, logger.NewLogger())
	count, err := job.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if count != 0 {
		t.Errorf("expected no processing, got %d", count)
	}

	stored, _ := sessions.GetByID(context.Background(), s.ID())
	if stored.Status() != session.StatusActive {
		t.Errorf("expected active status, got %s", stored.Status())
	}
}

func TestTimeoutSweep_OneFailureDoesNotAbortBatch(t *testing.T) {
	sessions := testutil.NewMockSessionRepository()
	gateway := testutil.NewMockDisplayGateway()
	recorder := testutil.NewMockAuditRecorder()

	// Both past hard timeout; gateway deletion fails for every session but the
	// sweep must still terminate both rows.
	gateway.SetDeleteError(contextErr())
	reclaimableSession(t, sessions, session.StatusActive, 2*time.Hour, time.Minute)
	reclaimableSession(t, sessions, session.StatusIdleWarning, 3*time.Hour, time.Minute)

	job := NewTimeoutSweepJob(sessions, gateway, recorder, reclamationCfg, logger.NewLogger())
	count, err := job.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if count != 2 {
		t.Errorf("expected both sessions reclaimed, got %d", count)
	}

	all, _ := sessions.ListAll(context.Background())
	for _, s := range all {
		if s.Status() != session.StatusTerminated {
			t.Errorf("expected terminated, got %s", s.Status())
		}
	}
}

func TestOrphanSweep_TerminatesOnlyFarPastSessions(t *testing.T) {
	sessions := testutil.NewMockSessionRepository()
	gateway := testutil.NewMockDisplayGateway()
	recorder := testutil.NewMockAuditRecorder()

	orphan := reclaimableSession(t, sessions, session.StatusActive, 3*time.Hour, time.Minute)
	recent := reclaimableSession(t, sessions, session.StatusActive, 90*time.Minute, time.Minute)

	job := NewOrphanSweepJob(sessions, gateway, recorder, reclamationCfg, logger.NewLogger())
	count, err := job.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 orphan reclaimed, got %d", count)
	}

	stored, _ := sessions.GetByID(context.Background(), orphan.ID())
	if stored.Status() != session.StatusTerminated {
		t.Errorf("expected orphan terminated, got %s", stored.Status())
	}
	kept, _ := sessions.GetByID(context.Background(), recent.ID())
	if kept.Status() != session.StatusActive {
		t.Errorf("expected recent session untouched, got %s", kept.Status())
	}
	if recorder.CountAction(audit.ActionSessionOrphan) != 1 {
		t.Errorf("expected session_orphan_cleanup audit entry")
	}
}

func TestTimeoutSweep_StopsOnCancelledContext(t *testing.T) {
	sessions := testutil.NewMockSessionRepository()
	reclaimableSession(t, sessions, session.StatusActive, 2*time.Hour, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewTimeoutSweepJob(sessions, testutil.NewMockDisplayGateway(), testutil.NewMockAuditRecorder(), reclamationCfg, logger.NewLogger())
	if _, err := job.Execute(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func contextErr() error {
	return context.DeadlineExceeded
}
