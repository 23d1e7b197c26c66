package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/services"
)

type SessionHandler struct {
	SessionRepo repository.SessionRepositoryInterface
	LogRepo     repository.AttendanceLogRepositoryInterface
	ClassRepo   repository.ClassRepositoryInterface
	Attendance  *services.AttendanceService
	Recognition *services.RecognitionService
}

func (sh *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	classID, err := parseUintParam(r, "class_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid class ID format")
		return
	}

	if _, err := sh.ClassRepo.GetByID(classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Class not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve class")
		}
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_date", "Date must be in YYYY-MM-DD format")
		return
	}

	session := models.AttendanceSession{
		ClassID: classID,
		Date:    req.Date,
		Status:  models.SessionPending,
	}
	if err := sh.SessionRepo.Create(&session); err != nil {
		log.Printf("Error creating session for class %d: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (sh *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	classID, err := parseUintParam(r, "class_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid class ID format")
		return
	}

	sessions, err := sh.SessionRepo.ListByClassID(classID)
	if err != nil {
		log.Printf("Error listing sessions for class %d: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve sessions")
		return
	}
	if sessions == nil {
		sessions = []models.AttendanceSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (sh *SessionHandler) getSession(w http.ResponseWriter, r *http.Request) (*models.AttendanceSession, bool) {
	sessionID, err := parseUintParam(r, "session_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid session ID format")
		return nil, false
	}

	session, err := sh.SessionRepo.GetByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Session not found")
		} else {
			log.Printf("Error getting session %d: %v", sessionID, err)
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve session")
		}
		return nil, false
	}
	return session, true
}

func (sh *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := sh.getSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// StartSession activates a session. Starting an active session is a no-op;
// starting a completed one is rejected.
func (sh *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	session, ok := sh.getSession(w, r)
	if !ok {
		return
	}

	if err := sh.Attendance.StartSession(session.ID); err != nil {
		if errors.Is(err, repository.ErrSessionCompleted) {
			WriteAPIError(w, http.StatusConflict, "session_completed", "Session is already completed and cannot be restarted")
		} else {
			log.Printf("Error starting session %d: %v", session.ID, err)
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to start session")
		}
		return
	}

	updated, err := sh.SessionRepo.GetByID(session.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve session")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// CompleteSession finishes a session and stops any running recognition loop.
// Completing an already-completed session is a no-op.
func (sh *SessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	session, ok := sh.getSession(w, r)
	if !ok {
		return
	}

	if sh.Recognition != nil {
		sh.Recognition.StopLoop(session.ID)
	}

	if err := sh.Attendance.CompleteSession(session.ID); err != nil {
		log.Printf("Error completing session %d: %v", session.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to complete session")
		return
	}

	updated, err := sh.SessionRepo.GetByID(session.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve session")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (sh *SessionHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	session, ok := sh.getSession(w, r)
	if !ok {
		return
	}

	logs, err := sh.LogRepo.ListBySession(session.ID)
	if err != nil {
		log.Printf("Error listing logs for session %d: %v", session.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve attendance logs")
		return
	}
	if logs == nil {
		logs = []models.AttendanceLogEntry{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// ListAbsent returns the derived absent list: enrolled students with no
// present or late entry for the session.
func (sh *SessionHandler) ListAbsent(w http.ResponseWriter, r *http.Request) {
	session, ok := sh.getSession(w, r)
	if !ok {
		return
	}

	absent, err := sh.Attendance.AbsentStudents(session.ID)
	if err != nil {
		log.Printf("Error deriving absent list for session %d: %v", session.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to derive absent students")
		return
	}
	writeJSON(w, http.StatusOK, absent)
}

// MarkManual records a manual attendance override. Manual marks bypass all
// recognition thresholds and replace any existing entry for the student.
func (sh *SessionHandler) MarkManual(w http.ResponseWriter, r *http.Request) {
	session, ok := sh.getSession(w, r)
	if !ok {
		return
	}

	var req struct {
		StudentID uint    `json:"student_id"`
		Status    string  `json:"status"`
		Note      *string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == 0 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Missing required fields: student_id, status")
		return
	}
	if !models.ValidAttendanceStatus(req.Status) {
		WriteAPIError(w, http.StatusBadRequest, "invalid_status", "Status must be present, absent, late, or early_leave")
		return
	}

	entry, err := sh.Attendance.MarkManual(session.ID, req.StudentID, req.Status, req.Note)
	if err != nil {
		log.Printf("Error manually marking student %d in session %d: %v", req.StudentID, session.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to record attendance")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
