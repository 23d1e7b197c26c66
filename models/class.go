package models

import "gorm.io/gorm"

// Class represents a teaching class owned by one teacher.
// It corresponds to the 'classes' table.
type Class struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	CourseCode  string         `gorm:"not null;index" json:"course_code"`
	TeacherID   uint           `gorm:"not null;index" json:"teacher_id"`
	Description *string        `gorm:"" json:"description,omitempty"` // Nullable
	CreatedAt   int64          `gorm:"not null" json:"created_at"`    // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt   int64          `gorm:"not null" json:"updated_at"`    // Stored as INTEGER in SQLite, Unix timestamp
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Teacher *User `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Class) TableName() string {
	return "classes"
}

// Enrollment links a student to a class. The (class, student) pair is unique;
// enrolling twice is a no-op at the repository level.
type Enrollment struct {
	ID        uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	ClassID   uint  `gorm:"not null;index:idx_class_student,unique" json:"class_id"`
	StudentID uint  `gorm:"not null;index:idx_class_student,unique" json:"student_id"`
	CreatedAt int64 `gorm:"not null" json:"created_at"`

	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Enrollment) TableName() string {
	return "enrollments"
}
