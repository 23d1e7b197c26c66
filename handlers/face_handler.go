package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/services"
)

// maxFrameBytes caps uploaded frame size (raw JPEG/PNG from the camera UI).
const maxFrameBytes = 10 << 20

type FaceHandler struct {
	FaceRepo    repository.FaceProfileRepositoryInterface
	UserRepo    repository.UserRepositoryInterface
	Recognition *services.RecognitionService
}

// RegisterDescriptors appends a batch of face descriptors to a student's
// profile. Each descriptor must be a 128-element vector; the batch is
// validated up front so a corrupt registration never reaches storage.
func (fh *FaceHandler) RegisterDescriptors(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseUintParam(r, "student_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid student ID format")
		return
	}

	if _, err := fh.UserRepo.GetByID(studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Student not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve student")
		}
		return
	}

	var req struct {
		Descriptors [][]float64 `json:"descriptors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Descriptors) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "At least one descriptor is required")
		return
	}
	for i, d := range req.Descriptors {
		if !recognition.Descriptor(d).Valid() {
			WriteAPIError(w, http.StatusBadRequest, "invalid_descriptor",
				fmt.Sprintf("Descriptor %d is not a valid %d-element vector", i, recognition.DescriptorLength))
			return
		}
	}

	profile, err := fh.FaceRepo.AppendDescriptors(studentID, req.Descriptors)
	if err != nil {
		log.Printf("Error appending descriptors for student %d: %v", studentID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to store face data")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetProfile returns the face profile metadata for a student.
func (fh *FaceHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseUintParam(r, "student_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid student ID format")
		return
	}

	profile, err := fh.FaceRepo.GetByUserID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "No face profile for student")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve face profile")
		}
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// DeleteProfile removes a student's stored face data.
func (fh *FaceHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseUintParam(r, "student_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid student ID format")
		return
	}

	if err := fh.FaceRepo.DeleteByUserID(studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "No face profile for student")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to delete face profile")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readFrame(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	frame, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes+1))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "read_error", "Failed to read frame data")
		return nil, false
	}
	if len(frame) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "missing_frame", "Request body must contain an image frame")
		return nil, false
	}
	if len(frame) > maxFrameBytes {
		WriteAPIError(w, http.StatusRequestEntityTooLarge, "frame_too_large", "Frame exceeds maximum allowed size")
		return nil, false
	}
	return frame, true
}

// Recognize runs one recognition attempt against a posted camera frame and
// commits any automatic mark it decides on.
func (fh *FaceHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUintParam(r, "session_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid session ID format")
		return
	}

	frame, ok := readFrame(w, r)
	if !ok {
		return
	}

	result, err := fh.Recognition.RecognizeFrame(r.Context(), sessionID, frame)
	if err != nil {
		if errors.Is(err, repository.ErrSessionCompleted) {
			WriteAPIError(w, http.StatusConflict, "session_completed", "Session is already completed")
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Session not found")
			return
		}
		log.Printf("Error recognizing frame for session %d: %v", sessionID, err)
		WriteAPIError(w, http.StatusInternalServerError, "recognition_error", "Recognition attempt failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// StartLoop begins continuous recognition for a session. Already running is a
// no-op. The loop belongs to the service, not this request; it keeps ticking
// after the response is written, until an explicit stop or session completion.
func (fh *FaceHandler) StartLoop(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUintParam(r, "session_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid session ID format")
		return
	}

	if err := fh.Recognition.StartLoop(sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionCompleted) {
			WriteAPIError(w, http.StatusConflict, "session_completed", "Session is already completed")
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Session not found")
			return
		}
		log.Printf("Error starting recognition loop for session %d: %v", sessionID, err)
		WriteAPIError(w, http.StatusInternalServerError, "loop_error", "Failed to start recognition loop")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session_id": sessionID, "running": true})
}

// StopLoop stops the continuous recognition loop for a session.
func (fh *FaceHandler) StopLoop(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUintParam(r, "session_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid session ID format")
		return
	}

	fh.Recognition.StopLoop(sessionID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"session_id": sessionID, "running": false})
}

// SubmitFrame feeds the latest camera frame into a session's running loop.
// Frames replace each other; only the newest is processed on the next tick.
func (fh *FaceHandler) SubmitFrame(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUintParam(r, "session_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid session ID format")
		return
	}

	frame, ok := readFrame(w, r)
	if !ok {
		return
	}

	if err := fh.Recognition.SubmitFrame(sessionID, frame); err != nil {
		WriteAPIError(w, http.StatusConflict, "no_loop", err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
