package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/camden-git/attendsysbackend/media"
	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/repository"
)

// FrameBuffer holds the most recent frame uploaded for a session. The
// recognition loop consumes the latest frame only; older frames are simply
// overwritten, never queued.
type FrameBuffer struct {
	mu    sync.RWMutex
	frame []byte
}

// Submit replaces the buffered frame.
func (b *FrameBuffer) Submit(frame []byte) {
	b.mu.Lock()
	b.frame = frame
	b.mu.Unlock()
}

// Latest implements recognition.FrameSource.
func (b *FrameBuffer) Latest() ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame, b.frame != nil
}

// FaceResult is the outcome for one detected face in a recognition attempt.
type FaceResult struct {
	Box            recognition.BoundingBox `json:"box"`
	Outcome        recognition.Outcome     `json:"outcome"`
	Best           *recognition.Candidate  `json:"best,omitempty"`
	Suggestions    []recognition.Candidate `json:"suggestions,omitempty"`
	Marked         bool                    `json:"marked"`
	AlreadyPresent bool                    `json:"already_present,omitempty"`
}

// AttemptResult is the response of a one-shot recognition attempt.
type AttemptResult struct {
	FacesDetected int          `json:"faces_detected"`
	Faces         []FaceResult `json:"faces"`
}

type sessionLoop struct {
	runner *recognition.Runner
	frames *FrameBuffer
}

// RecognitionService orchestrates the face-matching core against the stored
// roster and the attendance log: one-shot attempts for direct API calls, and
// one continuous runner per session in automatic mode.
type RecognitionService struct {
	Detector   recognition.Detector
	Roster     *RosterService
	Attendance *AttendanceService
	Sessions   repository.SessionRepositoryInterface
	Captures   media.CaptureStore
	Notifier   recognition.Notifier
	Thresholds recognition.Thresholds
	Interval   time.Duration

	// loops run on baseCtx, which the service owns. They must never be tied
	// to a request context: the loop has to keep ticking long after the
	// start request returned, until an explicit stop or Shutdown.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu    sync.Mutex
	loops map[uint]*sessionLoop
}

// NewRecognitionService creates a new recognition service
func NewRecognitionService(
	detector recognition.Detector,
	roster *RosterService,
	attendance *AttendanceService,
	sessions repository.SessionRepositoryInterface,
	captures media.CaptureStore,
	notifier recognition.Notifier,
	thresholds recognition.Thresholds,
	interval time.Duration,
) *RecognitionService {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &RecognitionService{
		Detector:   detector,
		Roster:     roster,
		Attendance: attendance,
		Sessions:   sessions,
		Captures:   captures,
		Notifier:   notifier,
		Thresholds: thresholds,
		Interval:   interval,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		loops:      make(map[uint]*sessionLoop),
	}
}

// MarkRecognized implements recognition.Sink. The captured frame is stored
// best-effort; a capture failure never blocks the attendance mark.
func (s *RecognitionService) MarkRecognized(ctx context.Context, sessionID, studentID uint, confidence float64, frame []byte) error {
	var capturedImage *string
	if s.Captures != nil && len(frame) > 0 {
		path, err := s.Captures.SaveCapture(frame)
		if err != nil {
			log.Printf("recognition: session %d: failed to store capture: %v", sessionID, err)
		} else {
			capturedImage = &path
		}
	}

	_, err := s.Attendance.MarkRecognized(ctx, sessionID, studentID, confidence, capturedImage)
	return err
}

// RecognizeFrame runs one full detect→rank→decide cycle for a posted frame
// and commits any auto-mark decision. Starting the session on first use
// mirrors the camera UI: opening it activates a pending session.
func (s *RecognitionService) RecognizeFrame(ctx context.Context, sessionID uint, frame []byte) (*AttemptResult, error) {
	if err := s.Sessions.Start(sessionID); err != nil {
		return nil, err
	}

	session, err := s.Sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	roster, err := s.Roster.RosterForClass(session.ClassID)
	if err != nil {
		return nil, err
	}

	detections, err := s.Detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	result := &AttemptResult{FacesDetected: len(detections)}
	for _, det := range detections {
		decision := recognition.Decide(recognition.Rank(det.Descriptor, roster), s.Thresholds)

		face := FaceResult{Box: det.Box, Outcome: decision.Outcome}
		switch decision.Outcome {
		case recognition.OutcomeSuggest:
			best := decision.Best
			face.Best = &best
			face.Suggestions = decision.Suggestions
		case recognition.OutcomeAutoMark:
			best := decision.Best
			face.Best = &best
			face.Suggestions = decision.Suggestions

			var capturedImage *string
			if s.Captures != nil {
				if path, err := s.Captures.SaveCapture(frame); err == nil {
					capturedImage = &path
				}
			}
			marked, err := s.Attendance.MarkRecognized(ctx, sessionID, best.StudentID, best.Confidence, capturedImage)
			if err != nil {
				return nil, err
			}
			face.Marked = marked
			face.AlreadyPresent = !marked
		}
		result.Faces = append(result.Faces, face)
	}
	return result, nil
}

// StartLoop activates the session and starts its continuous recognition loop.
// Starting an already-running loop is a no-op. The loop runs until StopLoop or
// Shutdown, independent of whatever request triggered it.
func (s *RecognitionService) StartLoop(sessionID uint) error {
	if err := s.Sessions.Start(sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loops[sessionID]; ok {
		return nil
	}

	session, err := s.Sessions.GetByID(sessionID)
	if err != nil {
		return err
	}
	roster, err := s.Roster.RosterForClass(session.ClassID)
	if err != nil {
		return err
	}

	frames := &FrameBuffer{}
	runner := recognition.NewRunner(sessionID, roster, s.Thresholds, s.Interval,
		frames, s.Detector, s, s.Notifier)
	runner.Start(s.baseCtx)
	s.loops[sessionID] = &sessionLoop{runner: runner, frames: frames}
	return nil
}

// StopLoop stops the continuous loop for a session; a no-op if none runs.
func (s *RecognitionService) StopLoop(sessionID uint) {
	s.mu.Lock()
	loop, ok := s.loops[sessionID]
	delete(s.loops, sessionID)
	s.mu.Unlock()

	if ok {
		loop.runner.Stop()
	}
}

// LoopRunning reports whether a session has a scheduled recognition loop.
func (s *RecognitionService) LoopRunning(sessionID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loops[sessionID]
	return ok
}

// SubmitFrame feeds the latest camera frame to a session's running loop.
func (s *RecognitionService) SubmitFrame(sessionID uint, frame []byte) error {
	s.mu.Lock()
	loop, ok := s.loops[sessionID]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("no recognition loop running for session %d", sessionID)
	}
	loop.frames.Submit(frame)
	return nil
}

// Shutdown stops every running loop and cancels the service context.
func (s *RecognitionService) Shutdown() {
	s.mu.Lock()
	loops := s.loops
	s.loops = make(map[uint]*sessionLoop)
	s.mu.Unlock()

	for id, loop := range loops {
		loop.runner.Stop()
		log.Printf("recognition: stopped loop for session %d on shutdown", id)
	}
	s.baseCancel()
}
