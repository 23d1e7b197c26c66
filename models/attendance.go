package models

import "gorm.io/gorm"

// Attendance session lifecycle. Completed is terminal.
const (
	SessionPending   = "pending"
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Per-student attendance statuses. A student with no present/late entry for a
// session is implicitly absent; the absent list is always derived, never
// stored.
const (
	AttendancePresent    = "present"
	AttendanceAbsent     = "absent"
	AttendanceLate       = "late"
	AttendanceEarlyLeave = "early_leave"
)

// ValidAttendanceStatus reports whether status is one of the log statuses a
// teacher may set manually.
func ValidAttendanceStatus(status string) bool {
	switch status {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceEarlyLeave:
		return true
	}
	return false
}

// AttendanceSession represents one class meeting being tracked.
// It corresponds to the 'attendance_sessions' table.
type AttendanceSession struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	ClassID     uint           `gorm:"not null;index" json:"class_id"`
	Date        string         `gorm:"not null" json:"date"` // YYYY-MM-DD
	Status      string         `gorm:"not null;default:'pending'" json:"status"`
	StartedAt   *int64         `gorm:"" json:"started_at,omitempty"`   // Nullable, Unix timestamp
	CompletedAt *int64         `gorm:"" json:"completed_at,omitempty"` // Nullable, Unix timestamp
	CreatedAt   int64          `gorm:"not null" json:"created_at"`     // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt   int64          `gorm:"not null" json:"updated_at"`     // Stored as INTEGER in SQLite, Unix timestamp
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Class *Class `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (AttendanceSession) TableName() string {
	return "attendance_sessions"
}

// AttendanceLogEntry records one attendance decision for a (session, student)
// pair. Recognized distinguishes automatic (face-matched) entries from manual
// teacher entries. Duplicate present/late entries for a pair are prevented by
// the decision policy's de-duplication check, not by a database constraint.
type AttendanceLogEntry struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID     uint    `gorm:"not null;index:idx_session_student" json:"session_id"`
	StudentID     uint    `gorm:"not null;index:idx_session_student" json:"student_id"`
	Status        string  `gorm:"not null" json:"status"`
	Recognized    bool    `gorm:"not null;default:false" json:"recognized"`
	Confidence    *float64 `gorm:"" json:"confidence,omitempty"`     // Nullable, automatic entries only
	CapturedImage *string  `gorm:"" json:"captured_image,omitempty"` // Nullable, relative media path
	Note          *string  `gorm:"" json:"note,omitempty"`           // Nullable, manual entries only
	Timestamp     int64    `gorm:"not null" json:"timestamp"`        // Unix timestamp of the mark
	CreatedAt     int64    `gorm:"not null" json:"created_at"`
	UpdatedAt     int64    `gorm:"not null" json:"updated_at"`

	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (AttendanceLogEntry) TableName() string {
	return "attendance_logs"
}
