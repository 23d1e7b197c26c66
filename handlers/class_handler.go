package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/facette/natsort"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/repository"
)

type ClassHandler struct {
	ClassRepo repository.ClassRepositoryInterface
	UserRepo  repository.UserRepositoryInterface
}

func parseUintParam(r *http.Request, name string) (uint, error) {
	idStr := chi.URLParam(r, name)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (ch *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		CourseCode  string  `json:"course_code"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.CourseCode) == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "Missing required fields: name, course_code")
		return
	}

	user, _ := UserFromContext(r.Context())
	class := models.Class{
		Name:        strings.TrimSpace(req.Name),
		CourseCode:  strings.TrimSpace(req.CourseCode),
		TeacherID:   user.ID,
		Description: req.Description,
	}
	if err := ch.ClassRepo.Create(&class); err != nil {
		log.Printf("Error creating class '%s': %v", req.Name, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to create class")
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

func (ch *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var classes []models.Class
	var err error
	if user.Role == models.RoleTeacher {
		classes, err = ch.ClassRepo.ListByTeacherID(user.ID)
	} else {
		classes, err = ch.ClassRepo.ListAll()
	}
	if err != nil {
		log.Printf("Error listing classes: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve classes")
		return
	}
	if classes == nil {
		classes = []models.Class{}
	}
	writeJSON(w, http.StatusOK, classes)
}

func (ch *ClassHandler) GetClass(w http.ResponseWriter, r *http.Request) {
	classID, err := parseUintParam(r, "class_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid class ID format")
		return
	}

	class, err := ch.ClassRepo.GetByID(classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Class not found")
		} else {
			log.Printf("Error getting class %d: %v", classID, err)
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve class")
		}
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (ch *ClassHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	classID, err := parseUintParam(r, "class_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid class ID format")
		return
	}

	class, err := ch.ClassRepo.GetByID(classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Class not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve class")
		}
		return
	}

	var req struct {
		Name        *string `json:"name"`
		CourseCode  *string `json:"course_code"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}
	if req.Name != nil {
		class.Name = strings.TrimSpace(*req.Name)
	}
	if req.CourseCode != nil {
		class.CourseCode = strings.TrimSpace(*req.CourseCode)
	}
	if req.Description != nil {
		class.Description = req.Description
	}

	if err := ch.ClassRepo.Update(class); err != nil {
		log.Printf("Error updating class %d: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to update class")
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (ch *ClassHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	classID, err := parseUintParam(r, "class_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid class ID format")
		return
	}

	if err := ch.ClassRepo.Delete(classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Class not found")
		} else {
			log.Printf("Error deleting class %d: %v", classID, err)
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to delete class")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ch *ClassHandler) EnrollStudent(w http.ResponseWriter, r *http.Request) {
	classID, err := parseUintParam(r, "class_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid class ID format")
		return
	}

	var req struct {
		StudentID uint `json:"student_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == 0 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Missing required field: student_id")
		return
	}

	student, err := ch.UserRepo.GetByID(req.StudentID)
	if err != nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Student not found")
		return
	}
	if student.Role != models.RoleStudent {
		WriteAPIError(w, http.StatusBadRequest, "invalid_role", "Only students can be enrolled in a class")
		return
	}

	if err := ch.ClassRepo.EnrollStudent(classID, req.StudentID); err != nil {
		log.Printf("Error enrolling student %d in class %d: %v", req.StudentID, classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to enroll student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ch *ClassHandler) UnenrollStudent(w http.ResponseWriter, r *http.Request) {
	classID, err := parseUintParam(r, "class_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid class ID format")
		return
	}
	studentID, err := parseUintParam(r, "student_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid student ID format")
		return
	}

	if err := ch.ClassRepo.UnenrollStudent(classID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Enrollment not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to unenroll student")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRoster lists the enrolled students of a class in natural name order.
func (ch *ClassHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	classID, err := parseUintParam(r, "class_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid class ID format")
		return
	}

	students, err := ch.ClassRepo.ListEnrolledStudents(classID)
	if err != nil {
		log.Printf("Error listing roster for class %d: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve roster")
		return
	}

	sort.SliceStable(students, func(i, j int) bool {
		return natsort.Compare(students[i].Name, students[j].Name)
	})
	if students == nil {
		students = []models.User{}
	}
	writeJSON(w, http.StatusOK, students)
}
