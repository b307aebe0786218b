package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/infrastructure/persistence/models"
	"dicomdesk/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.PatientModel{},
		&models.StudyModel{},
		&models.DoctorModel{},
		&models.PatientAssignmentModel{},
		&models.SessionModel{},
		&models.AuditLogModel{},
	)
	require.NoError(t, err)

	return db
}

func newTestSession(t *testing.T, doctorID uuid.UUID) *session.Session {
	t.Helper()
	s, err := session.NewSession(doctorID, uuid.New())
	require.NoError(t, err)
	return s
}

func TestSessionRepository_CreateAndGetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db, logger.NewLogger())
	ctx := context.Background()

	s := newTestSession(t, uuid.New())
	require.NoError(t, repo.Create(ctx, s))

	found, err := repo.GetByID(ctx, s.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, s.ID(), found.ID())
	assert.Equal(t, s.DoctorID(), found.DoctorID())
	assert.Equal(t, session.StatusCreating, found.Status())
}

func TestSessionRepository_GetByIDMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db, logger.NewLogger())

	found, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSessionRepository_UpdatePersistsLifecycleFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db, logger.NewLogger())
	ctx := context.Background()

	s := newTestSession(t, uuid.New())
	require.NoError(t, repo.Create(ctx, s))

	require.NoError(t, s.Activate("RDS-SESSION-00001", "conn-1"))
	require.NoError(t, repo.Update(ctx, s))

	found, err := repo.GetByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, found.Status())
	assert.Equal(t, "RDS-SESSION-00001", found.RDSSessionID())
	assert.Equal(t, "conn-1", found.GuacamoleConnectionID())
	assert.NotNil(t, found.LastActivityAt())

	require.NoError(t, found.Terminate())
	require.NoError(t, repo.Update(ctx, found))

	found, err = repo.GetByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusTerminated, found.Status())
	assert.NotNil(t, found.EndedAt())
}

func TestSessionRepository_UpdateMissingSessionFails(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db, logger.NewLogger())

	s := newTestSession(t, uuid.New())
	err := repo.Update(context.Background(), s)
	assert.Error(t, err)
}

func TestSessionRepository_FindNonTerminalByDoctor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db, logger.NewLogger())
	ctx := context.Background()

	doctorID := uuid.New()

	terminated := newTestSession(t, doctorID)
	require.NoError(t, repo.Create(ctx, terminated))
	require.NoError(t, terminated.Terminate())
	require.NoError(t, repo.Update(ctx, terminated))

	found, err := repo.FindNonTerminalByDoctor(ctx, doctorID)
	require.NoError(t, err)
	assert.Nil(t, found, "terminated session must not count as live")

	live := newTestSession(t, doctorID)
	require.NoError(t, repo.Create(ctx, live))

	found, err = repo.FindNonTerminalByDoctor(ctx, doctorID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, live.ID(), found.ID())

	found, err = repo.FindNonTerminalByDoctor(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSessionRepository_CountNonTerminal(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db, logger.NewLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newTestSession(t, uuid.New())))
	}
	terminated := newTestSession(t, uuid.New())
	require.NoError(t, repo.Create(ctx, terminated))
	require.NoError(t, terminated.Terminate())
	require.NoError(t, repo.Update(ctx, terminated))

	count, err := repo.CountNonTerminal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSessionRepository_ListReclaimableExcludesCreatingAndTerminated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db, logger.NewLogger())
	ctx := context.Background()

	creating := newTestSession(t, uuid.New())
	require.NoError(t, repo.Create(ctx, creating))

	active := newTestSession(t, uuid.New())
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, active.Activate("RDS-SESSION-00002", "conn-2"))
	require.NoError(t, repo.Update(ctx, active))

	idle := newTestSession(t, uuid.New())
	require.NoError(t, repo.Create(ctx, idle))
	require.NoError(t, idle.Activate("RDS-SESSION-00003", "conn-3"))
	require.NoError(t, idle.MarkIdle())
	require.NoError(t, repo.Update(ctx, idle))

	terminated := newTestSession(t, uuid.New())
	require.NoError(t, repo.Create(ctx, terminated))
	require.NoError(t, terminated.Terminate())
	require.NoError(t, repo.Update(ctx, terminated))

	reclaimable, err := repo.ListReclaimable(ctx)
	require.NoError(t, err)
	require.Len(t, reclaimable, 2)

	statuses := map[uuid.UUID]session.Status{}
	for _, s := range reclaimable {
		statuses[s.ID()] = s.Status()
	}
	assert.Equal(t, session.StatusActive, statuses[active.ID()])
	assert.Equal(t, session.StatusIdleWarning, statuses[idle.ID()])
}

func TestSessionRepository_ListByDoctorNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db, logger.NewLogger())
	ctx := context.Background()

	doctorID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		s := newTestSession(t, doctorID)
		require.NoError(t, repo.Create(ctx, s))
		// Stagger started_at so newest-first ordering is observable.
		db.Model(&models.SessionModel{}).
			Where("id = ?", s.ID()).
			Update("started_at", time.Now().UTC().Add(time.Duration(i)*time.Minute))
		ids = append(ids, s.ID())
	}
	require.NoError(t, repo.Create(ctx, newTestSession(t, uuid.New())))

	listed, err := repo.ListByDoctor(ctx, doctorID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, ids[2], listed[0].ID())
	assert.Equal(t, ids[0], listed[2].ID())

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
