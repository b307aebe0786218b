// Package repository provides GORM-backed implementations of the domain
// repository interfaces.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/infrastructure/persistence/mappers"
	"dicomdesk/internal/infrastructure/persistence/models"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// SessionRepositoryImpl implements the session.Repository interface.
type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SessionMapper
	logger logger.Interface
}

// NewSessionRepository creates a new session repository instance.
func NewSessionRepository(db *gorm.DB, logger logger.Interface) session.Repository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSessionMapper(),
		logger: logger,
	}
}

// Create persists a new session row. GORM commits single inserts
// immediately, so the row is visible to concurrent limit checks as soon as
// this returns.
func (r *SessionRepositoryImpl) Create(ctx context.Context, s *session.Session) error {
	model := r.mapper.ToModel(s)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("doctor already has an active session")
		}
		r.logger.Errorw("failed to create session in database", "error", err)
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Infow("session created", "id", model.ID, "doctor_id", model.DoctorID, "status", model.Status)
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	var model models.SessionModel

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get session by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map session model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map session: %w", err)
	}

	return entity, nil
}

// Update persists the session's mutable fields.
func (r *SessionRepositoryImpl) Update(ctx context.Context, s *session.Session) error {
	model := r.mapper.ToModel(s)

	result := r.db.WithContext(ctx).Model(&models.SessionModel{}).
		Where("id = ?", model.ID).
		Select("GuacamoleConnectionID", "RDSSessionID", "WindowsUser", "Status", "LastActivityAt", "EndedAt").
		Updates(model)
	if result.Error != nil {
		r.logger.Errorw("failed to update session", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("session not found")
	}

	return nil
}

// FindNonTerminalByDoctor returns the doctor's non-terminal session, if any.
func (r *SessionRepositoryImpl) FindNonTerminalByDoctor(ctx context.Context, doctorID uuid.UUID) (*session.Session, error) {
	var model models.SessionModel

	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND status IN ?", doctorID, nonTerminalStatusStrings()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to find non-terminal session for doctor", "doctor_id", doctorID, "error", err)
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// CountNonTerminal returns how many sessions count against the global cap.
func (r *SessionRepositoryImpl) CountNonTerminal(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).Model(&models.SessionModel{}).
		Where("status IN ?", nonTerminalStatusStrings()).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to count non-terminal sessions", "error", err)
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return count, nil
}

// ListReclaimable returns sessions the reclamation loops examine: active or
// idle-warned, with no end timestamp.
func (r *SessionRepositoryImpl) ListReclaimable(ctx context.Context) ([]*session.Session, error) {
	var sessionModels []*models.SessionModel

	err := r.db.WithContext(ctx).
		Where("status IN ? AND ended_at IS NULL", []string{string(session.StatusActive), string(session.StatusIdleWarning)}).
		Find(&sessionModels).Error
	if err != nil {
		r.logger.Errorw("failed to list reclaimable sessions", "error", err)
		return nil, fmt.Errorf("failed to list reclaimable sessions: %w", err)
	}

	return r.mapper.ToEntities(sessionModels)
}

// ListAll returns every session, newest first.
func (r *SessionRepositoryImpl) ListAll(ctx context.Context) ([]*session.Session, error) {
	var sessionModels []*models.SessionModel

	err := r.db.WithContext(ctx).Order("started_at DESC").Find(&sessionModels).Error
	if err != nil {
		r.logger.Errorw("failed to list sessions", "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return r.mapper.ToEntities(sessionModels)
}

// ListByDoctor returns the doctor's sessions, newest first.
func (r *SessionRepositoryImpl) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*session.Session, error) {
	var sessionModels []*models.SessionModel

	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("started_at DESC").
		Find(&sessionModels).Error
	if err != nil {
		r.logger.Errorw("failed to list sessions by doctor", "doctor_id", doctorID, "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return r.mapper.ToEntities(sessionModels)
}

func nonTerminalStatusStrings() []string {
	statuses := session.NonTerminalStatuses()
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
