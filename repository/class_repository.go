package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"gorm.io/gorm"
)

// ClassRepository handles database operations for Class and Enrollment entities
type ClassRepository struct {
	DB *gorm.DB
}

// Ensure ClassRepository implements ClassRepositoryInterface
var _ ClassRepositoryInterface = (*ClassRepository)(nil)

// NewClassRepository creates a new instance of ClassRepository
func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{DB: db}
}

// Create creates a new class record in the database
func (r *ClassRepository) Create(class *models.Class) error {
	now := time.Now().Unix()
	if class.CreatedAt == 0 {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	err := r.DB.Create(class).Error
	if err != nil {
		return fmt.Errorf("failed to create class %s: %w", class.Name, err)
	}
	return nil
}

// GetByID retrieves a class by its ID
func (r *ClassRepository) GetByID(id uint) (*models.Class, error) {
	var class models.Class
	err := r.DB.Preload("Teacher").First(&class, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get class by ID %d: %w", id, err)
	}
	return &class, nil
}

// ListAll retrieves all classes
func (r *ClassRepository) ListAll() ([]models.Class, error) {
	var classes []models.Class
	err := r.DB.Order("course_code asc, name asc").Find(&classes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

// ListByTeacherID retrieves all classes owned by the given teacher
func (r *ClassRepository) ListByTeacherID(teacherID uint) ([]models.Class, error) {
	var classes []models.Class
	err := r.DB.Where("teacher_id = ?", teacherID).Order("course_code asc, name asc").Find(&classes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list classes for teacher %d: %w", teacherID, err)
	}
	return classes, nil
}

// Update updates an existing class
func (r *ClassRepository) Update(class *models.Class) error {
	class.UpdatedAt = time.Now().Unix()
	err := r.DB.Save(class).Error
	if err != nil {
		return fmt.Errorf("failed to update class ID %d: %w", class.ID, err)
	}
	return nil
}

// Delete removes a class and its enrollments
func (r *ClassRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return fmt.Errorf("failed to delete enrollments for class %d: %w", id, err)
		}
		result := tx.Delete(&models.Class{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete class ID %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// EnrollStudent adds a student to a class. Enrolling an already-enrolled
// student is a no-op.
func (r *ClassRepository) EnrollStudent(classID, studentID uint) error {
	enrollment := models.Enrollment{
		ClassID:   classID,
		StudentID: studentID,
		CreatedAt: time.Now().Unix(),
	}
	err := r.DB.Where("class_id = ? AND student_id = ?", classID, studentID).
		FirstOrCreate(&enrollment).Error
	if err != nil {
		return fmt.Errorf("failed to enroll student %d in class %d: %w", studentID, classID, err)
	}
	return nil
}

// UnenrollStudent removes a student from a class
func (r *ClassRepository) UnenrollStudent(classID, studentID uint) error {
	result := r.DB.Where("class_id = ? AND student_id = ?", classID, studentID).Delete(&models.Enrollment{})
	if result.Error != nil {
		return fmt.Errorf("failed to unenroll student %d from class %d: %w", studentID, classID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListEnrolledStudents retrieves the roster of a class in enrollment order
func (r *ClassRepository) ListEnrolledStudents(classID uint) ([]models.User, error) {
	var students []models.User
	err := r.DB.Joins("JOIN enrollments ON enrollments.student_id = users.id").
		Where("enrollments.class_id = ?", classID).
		Order("enrollments.id asc").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for class %d: %w", classID, err)
	}
	return students, nil
}
