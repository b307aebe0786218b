package usecases

import (
	"context"
	"time"

	"dicomdesk/internal/domain/audit"
	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/logger"
)

// ReclamationConfig holds the lifecycle thresholds the sweeps enforce.
type ReclamationConfig struct {
	IdleTimeout time.Duration
	HardTimeout time.Duration
}

// TimeoutSweepJob is the fast reclamation sweep. Each execution terminates
// sessions past the hard timeout and flags idle ones, independently per
// session so one failure never aborts the batch.
type TimeoutSweepJob struct {
	sessions session.Repository
	gateway  session.DisplayGateway
	recorder audit.Recorder
	cfg      ReclamationConfig
	logger   logger.Interface

	// now is swapped in tests to drive age computation.
	now func() time.Time
}

// NewTimeoutSweepJob creates the fast reclamation sweep.
func NewTimeoutSweepJob(
	sessions session.Repository,
	gateway session.DisplayGateway,
	recorder audit.Recorder,
	cfg ReclamationConfig,
	logger logger.Interface,
) *TimeoutSweepJob {
	return &TimeoutSweepJob{
		sessions: sessions,
		gateway:  gateway,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Execute processes one sweep and returns how many sessions changed state.
func (j *TimeoutSweepJob) Execute(ctx context.Context) (int, error) {
	sessions, err := j.sessions.ListReclaimable(ctx)
	if err != nil {
		return 0, err
	}

	now := j.now()
	processed := 0
	for _, s := range sessions {
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		default:
		}

		switch {
		// Hard timeout takes priority over idle handling.
		case s.TotalAge(now) >= j.cfg.HardTimeout:
			if j.reclaim(ctx, s, audit.ActionSessionTerminated) {
				j.logger.Infow("session hard-terminated",
					"session_id", s.ID(), "total_age", s.TotalAge(now))
				processed++
			}
		case s.IdleAge(now) >= j.cfg.IdleTimeout && s.Status() != session.StatusIdleWarning:
			if j.flagIdle(ctx, s) {
				j.logger.Infow("session marked idle",
					"session_id", s.ID(), "idle_age", s.IdleAge(now))
				processed++
			}
		}
	}

	return processed, nil
}

func (j *TimeoutSweepJob) flagIdle(ctx context.Context, s *session.Session) bool {
	if err := s.MarkIdle(); err != nil {
		j.logger.Warnw("failed to mark session idle", "session_id", s.ID(), "error", err)
		return false
	}
	if err := j.sessions.Update(ctx, s); err != nil {
		j.logger.Errorw("failed to persist idle warning", "session_id", s.ID(), "error", err)
		return false
	}

	j.recorder.Record(ctx, audit.Entry{
		ActionType:   audit.ActionSessionIdleWarning,
		ResourceType: audit.ResourceSessions,
		ResourceID:   s.ID().String(),
		Details:      map[string]any{"source": "session_monitor"},
	})
	return true
}

// reclaim tears down the session's display connection best-effort and
// terminalizes the row, recording the given audit action.
func (j *TimeoutSweepJob) reclaim(ctx context.Context, s *session.Session, action string) bool {
	if s.GuacamoleConnectionID() != "" {
		if err := j.gateway.DeleteConnection(ctx, s.GuacamoleConnectionID()); err != nil {
			j.logger.Warnw("display connection cleanup failed during reclamation",
				"session_id", s.ID(), "connection_id", s.GuacamoleConnectionID(), "error", err)
		}
	}

	if err := s.Terminate(); err != nil {
		j.logger.Warnw("failed to terminalize session", "session_id", s.ID(), "error", err)
		return false
	}
	if err := j.sessions.Update(ctx, s); err != nil {
		j.logger.Errorw("failed to persist reclaimed session", "session_id", s.ID(), "error", err)
		return false
	}

	j.recorder.Record(ctx, audit.Entry{
		ActionType:   action,
		ResourceType: audit.ResourceSessions,
		ResourceID:   s.ID().String(),
		Details:      map[string]any{"source": "session_monitor"},
	})
	return true
}

// OrphanSweepJob is the slow safety-net sweep: non-terminal sessions older
// than twice the hard timeout are presumed abandoned by a prior reclamation
// miss and force-terminated.
type OrphanSweepJob struct {
	inner *TimeoutSweepJob
}

// NewOrphanSweepJob creates the orphan sweep.
func NewOrphanSweepJob(
	sessions session.Repository,
	gateway session.DisplayGateway,
	recorder audit.Recorder,
	cfg ReclamationConfig,
	logger logger.Interface,
) *OrphanSweepJob {
	return &OrphanSweepJob{
		inner: &TimeoutSweepJob{
			sessions: sessions,
			gateway:  gateway,
			recorder: recorder,
			cfg:      cfg,
			logger:   logger,
			now:      func() time.Time { return time.Now().UTC() },
		},
	}
}

// Execute terminates orphaned sessions and returns how many were reclaimed.
func (j *OrphanSweepJob) Execute(ctx context.Context) (int, error) {
	sessions, err := j.inner.sessions.ListReclaimable(ctx)
	if err != nil {
		return 0, err
	}

	now := j.inner.now()
	cutoff := 2 * j.inner.cfg.HardTimeout
	processed := 0
	for _, s := range sessions {
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		default:
		}

		if s.TotalAge(now) < cutoff {
			continue
		}
		if j.inner.reclaim(ctx, s, audit.ActionSessionOrphan) {
			j.inner.logger.Infow("orphaned session terminated",
				"session_id", s.ID(), "total_age", s.TotalAge(now))
			processed++
		}
	}

	return processed, nil
}
