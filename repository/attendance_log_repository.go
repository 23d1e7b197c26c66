package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"gorm.io/gorm"
)

// AttendanceLogRepository handles database operations for AttendanceLogEntry
// entities. Entries are appended or superseded, never deleted.
type AttendanceLogRepository struct {
	DB *gorm.DB
}

// Ensure AttendanceLogRepository implements AttendanceLogRepositoryInterface
var _ AttendanceLogRepositoryInterface = (*AttendanceLogRepository)(nil)

// NewAttendanceLogRepository creates a new instance of AttendanceLogRepository
func NewAttendanceLogRepository(db *gorm.DB) *AttendanceLogRepository {
	return &AttendanceLogRepository{DB: db}
}

// Append creates a new attendance log entry
func (r *AttendanceLogRepository) Append(entry *models.AttendanceLogEntry) error {
	now := time.Now().Unix()
	if entry.CreatedAt == 0 {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.Timestamp == 0 {
		entry.Timestamp = now
	}

	err := r.DB.Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to append attendance log for session %d student %d: %w",
			entry.SessionID, entry.StudentID, err)
	}
	return nil
}

// Update rewrites an existing attendance log entry (manual overrides)
func (r *AttendanceLogRepository) Update(entry *models.AttendanceLogEntry) error {
	entry.UpdatedAt = time.Now().Unix()
	result := r.DB.Save(entry)
	if result.Error != nil {
		return fmt.Errorf("failed to update attendance log ID %d: %w", entry.ID, result.Error)
	}
	return nil
}

// GetBySessionAndStudent retrieves the log entry for one (session, student) pair
func (r *AttendanceLogRepository) GetBySessionAndStudent(sessionID, studentID uint) (*models.AttendanceLogEntry, error) {
	var entry models.AttendanceLogEntry
	err := r.DB.Where("session_id = ? AND student_id = ?", sessionID, studentID).
		Order("id desc").First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get attendance log for session %d student %d: %w",
			sessionID, studentID, err)
	}
	return &entry, nil
}

// ListBySession retrieves all log entries of a session in append order
func (r *AttendanceLogRepository) ListBySession(sessionID uint) ([]models.AttendanceLogEntry, error) {
	var entries []models.AttendanceLogEntry
	err := r.DB.Where("session_id = ?", sessionID).Preload("Student").Order("id asc").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance logs for session %d: %w", sessionID, err)
	}
	return entries, nil
}

// HasPresentEntry reports whether the student already has a present or late
// entry for the session. This backs the decision policy's de-duplication
// guard: at most one present/late entry may exist per (session, student) pair.
func (r *AttendanceLogRepository) HasPresentEntry(sessionID, studentID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.AttendanceLogEntry{}).
		Where("session_id = ? AND student_id = ? AND status IN ?",
			sessionID, studentID, []string{models.AttendancePresent, models.AttendanceLate}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check present entry for session %d student %d: %w",
			sessionID, studentID, err)
	}
	return count > 0, nil
}

// PresentStudentIDs retrieves the IDs of students with a present or late entry
// for the session. The absent list is derived from this, never stored.
func (r *AttendanceLogRepository) PresentStudentIDs(sessionID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&models.AttendanceLogEntry{}).
		Where("session_id = ? AND status IN ?",
			sessionID, []string{models.AttendancePresent, models.AttendanceLate}).
		Distinct().Pluck("student_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list present students for session %d: %w", sessionID, err)
	}
	return ids, nil
}
