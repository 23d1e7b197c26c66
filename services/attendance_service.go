package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/repository"
	"gorm.io/gorm"
)

// AttendanceService owns all attendance log writes. Automatic and manual
// marks for the same (session, student) pair are serialized through a per-key
// lock so the de-duplication check can never race a concurrent override.
type AttendanceService struct {
	Sessions repository.SessionRepositoryInterface
	Logs     repository.AttendanceLogRepositoryInterface
	Classes  repository.ClassRepositoryInterface

	mu        sync.Mutex
	markLocks map[string]*sync.Mutex
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	sessions repository.SessionRepositoryInterface,
	logs repository.AttendanceLogRepositoryInterface,
	classes repository.ClassRepositoryInterface,
) *AttendanceService {
	return &AttendanceService{
		Sessions:  sessions,
		Logs:      logs,
		Classes:   classes,
		markLocks: make(map[string]*sync.Mutex),
	}
}

func (s *AttendanceService) lockFor(sessionID, studentID uint) *sync.Mutex {
	key := fmt.Sprintf("%d:%d", sessionID, studentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.markLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.markLocks[key] = l
	}
	return l
}

// MarkRecognized appends an automatic present entry for the student. If the
// student already has a present/late entry for the session, the mark is a
// silent no-op; repeated detections of an already-present student must never
// produce duplicate entries or errors. Returns whether a new entry was
// written.
func (s *AttendanceService) MarkRecognized(ctx context.Context, sessionID, studentID uint, confidence float64, capturedImage *string) (bool, error) {
	l := s.lockFor(sessionID, studentID)
	l.Lock()
	defer l.Unlock()

	present, err := s.Logs.HasPresentEntry(sessionID, studentID)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}

	entry := &models.AttendanceLogEntry{
		SessionID:     sessionID,
		StudentID:     studentID,
		Status:        models.AttendancePresent,
		Recognized:    true,
		Confidence:    &confidence,
		CapturedImage: capturedImage,
		Timestamp:     time.Now().Unix(),
	}
	if err := s.Logs.Append(entry); err != nil {
		return false, err
	}
	log.Printf("attendance: session %d: marked student %d present (confidence %.3f)", sessionID, studentID, confidence)
	return true, nil
}

// MarkManual creates or overwrites the log entry for a student with any
// status and an optional note. It bypasses all recognition thresholds; this
// is the teacher's fallback when recognition fails or a correction is needed.
func (s *AttendanceService) MarkManual(sessionID, studentID uint, status string, note *string) (*models.AttendanceLogEntry, error) {
	if !models.ValidAttendanceStatus(status) {
		return nil, fmt.Errorf("invalid attendance status %q", status)
	}

	l := s.lockFor(sessionID, studentID)
	l.Lock()
	defer l.Unlock()

	now := time.Now().Unix()
	existing, err := s.Logs.GetBySessionAndStudent(sessionID, studentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		existing.Status = status
		existing.Note = note
		existing.Recognized = false
		existing.Confidence = nil
		existing.Timestamp = now
		if err := s.Logs.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	entry := &models.AttendanceLogEntry{
		SessionID:  sessionID,
		StudentID:  studentID,
		Status:     status,
		Recognized: false,
		Note:       note,
		Timestamp:  now,
	}
	if err := s.Logs.Append(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AbsentStudents derives the absent list for a session: the class roster
// minus every student with a present or late entry.
func (s *AttendanceService) AbsentStudents(sessionID uint) ([]models.User, error) {
	session, err := s.Sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	roster, err := s.Classes.ListEnrolledStudents(session.ClassID)
	if err != nil {
		return nil, err
	}

	presentIDs, err := s.Logs.PresentStudentIDs(sessionID)
	if err != nil {
		return nil, err
	}
	present := make(map[uint]bool, len(presentIDs))
	for _, id := range presentIDs {
		present[id] = true
	}

	absent := make([]models.User, 0, len(roster))
	for _, student := range roster {
		if !present[student.ID] {
			absent = append(absent, student)
		}
	}
	return absent, nil
}

// StartSession transitions a session to active; a no-op if already active.
func (s *AttendanceService) StartSession(sessionID uint) error {
	return s.Sessions.Start(sessionID)
}

// CompleteSession transitions a session to completed; a no-op if already
// completed. The session's mark locks are released afterwards so the lock map
// does not grow for the process lifetime.
func (s *AttendanceService) CompleteSession(sessionID uint) error {
	if err := s.Sessions.Complete(sessionID); err != nil {
		return err
	}
	s.releaseMarkLocks(sessionID)
	return nil
}

func (s *AttendanceService) releaseMarkLocks(sessionID uint) {
	prefix := fmt.Sprintf("%d:", sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.markLocks {
		if strings.HasPrefix(key, prefix) {
			delete(s.markLocks, key)
		}
	}
}
