package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"gorm.io/gorm"
)

// ErrSessionCompleted is returned when a state change is attempted on a
// completed session. Completed is terminal.
var ErrSessionCompleted = errors.New("attendance session is already completed")

// SessionRepository handles database operations for AttendanceSession entities
type SessionRepository struct {
	DB *gorm.DB
}

// Ensure SessionRepository implements SessionRepositoryInterface
var _ SessionRepositoryInterface = (*SessionRepository)(nil)

// NewSessionRepository creates a new instance of SessionRepository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// Create creates a new attendance session in the pending state
func (r *SessionRepository) Create(session *models.AttendanceSession) error {
	now := time.Now().Unix()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = models.SessionPending
	}

	err := r.DB.Create(session).Error
	if err != nil {
		return fmt.Errorf("failed to create attendance session for class %d: %w", session.ClassID, err)
	}
	return nil
}

// GetByID retrieves an attendance session by its ID
func (r *SessionRepository) GetByID(id uint) (*models.AttendanceSession, error) {
	var session models.AttendanceSession
	err := r.DB.Preload("Class").First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get attendance session by ID %d: %w", id, err)
	}
	return &session, nil
}

// ListByClassID retrieves all sessions of a class, newest first
func (r *SessionRepository) ListByClassID(classID uint) ([]models.AttendanceSession, error) {
	var sessions []models.AttendanceSession
	err := r.DB.Where("class_id = ?", classID).Order("date desc, id desc").Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for class %d: %w", classID, err)
	}
	return sessions, nil
}

// Start transitions a session from pending to active. Starting an already
// active session is a no-op; starting a completed session is an error.
func (r *SessionRepository) Start(id uint) error {
	session, err := r.GetByID(id)
	if err != nil {
		return err
	}

	switch session.Status {
	case models.SessionActive:
		return nil
	case models.SessionCompleted:
		return ErrSessionCompleted
	}

	now := time.Now().Unix()
	err = r.DB.Model(&models.AttendanceSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     models.SessionActive,
		"started_at": now,
		"updated_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to start session %d: %w", id, err)
	}
	return nil
}

// Complete transitions a session to the terminal completed state. Completing
// an already completed session is a no-op.
func (r *SessionRepository) Complete(id uint) error {
	session, err := r.GetByID(id)
	if err != nil {
		return err
	}

	if session.Status == models.SessionCompleted {
		return nil
	}

	now := time.Now().Unix()
	err = r.DB.Model(&models.AttendanceSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       models.SessionCompleted,
		"completed_at": now,
		"updated_at":   now,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to complete session %d: %w", id, err)
	}
	return nil
}
