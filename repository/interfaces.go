package repository

import "github.com/camden-git/attendsysbackend/models"

// UserRepositoryInterface defines the methods for user account operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	ListAll() ([]models.User, error)
	ListByRole(role string) ([]models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
}

// ClassRepositoryInterface defines the methods for class and enrollment operations
type ClassRepositoryInterface interface {
	Create(class *models.Class) error
	GetByID(id uint) (*models.Class, error)
	ListAll() ([]models.Class, error)
	ListByTeacherID(teacherID uint) ([]models.Class, error)
	Update(class *models.Class) error
	Delete(id uint) error

	EnrollStudent(classID, studentID uint) error
	UnenrollStudent(classID, studentID uint) error
	ListEnrolledStudents(classID uint) ([]models.User, error)
}

// FaceProfileRepositoryInterface defines the methods for stored face data operations
type FaceProfileRepositoryInterface interface {
	GetByUserID(userID uint) (*models.FaceProfile, error)
	AppendDescriptors(userID uint, batch [][]float64) (*models.FaceProfile, error)
	DeleteByUserID(userID uint) error
}

// SessionRepositoryInterface defines the methods for attendance session operations.
// Start and Complete are idempotent: a session already in the target state is
// a no-op, and completed is terminal.
type SessionRepositoryInterface interface {
	Create(session *models.AttendanceSession) error
	GetByID(id uint) (*models.AttendanceSession, error)
	ListByClassID(classID uint) ([]models.AttendanceSession, error)
	Start(id uint) error
	Complete(id uint) error
}

// AttendanceLogRepositoryInterface defines the methods for attendance log operations
type AttendanceLogRepositoryInterface interface {
	Append(entry *models.AttendanceLogEntry) error
	Update(entry *models.AttendanceLogEntry) error
	GetBySessionAndStudent(sessionID, studentID uint) (*models.AttendanceLogEntry, error)
	ListBySession(sessionID uint) ([]models.AttendanceLogEntry, error)
	HasPresentEntry(sessionID, studentID uint) (bool, error)
	PresentStudentIDs(sessionID uint) ([]uint, error)
}
