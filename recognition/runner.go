package recognition

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the tick period of the continuous recognition loop.
const DefaultInterval = 1000 * time.Millisecond

// BoundingBox is a detected face region in frame pixel coordinates.
type BoundingBox struct {
	X1, Y1, X2, Y2 int
}

// Point is a facial landmark in frame pixel coordinates.
type Point struct {
	X, Y float64
}

// Detection is one face found in a frame by the external detector/embedder.
type Detection struct {
	Box        BoundingBox
	Landmarks  []Point
	Descriptor Descriptor
}

// Detector turns a captured frame into zero or more face detections. An empty
// result means no face was found and is not an error.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]Detection, error)
}

// FrameSource hands the runner the most recent captured frame, if any. Frames
// are not queued; a stale frame's recognition result is low-value once a newer
// one exists.
type FrameSource interface {
	Latest() (frame []byte, ok bool)
}

// Sink receives committed auto-mark decisions. Implementations own the
// de-duplication guard: marking an already-present student must be a silent
// no-op, which is what makes unserialized ticks safe.
type Sink interface {
	MarkRecognized(ctx context.Context, sessionID, studentID uint, confidence float64, frame []byte) error
}

// Notifier receives per-attempt outcomes for UI consumption. All methods are
// advisory; implementations must not block the loop.
type Notifier interface {
	NoFace(sessionID uint)
	NoMatch(sessionID uint)
	Suggested(sessionID uint, best Candidate, others []Candidate)
	Marked(sessionID uint, best Candidate)
	AttemptFailed(sessionID uint, err error)
}

// Runner drives the continuous recognition loop for one active session. Each
// tick performs one independent detect→rank→decide cycle against a roster
// snapshot taken at start; if an attempt is still in flight when the next
// tick fires, that tick is skipped rather than queued. The runner owns no
// persistent state beyond whether it is currently scheduled.
type Runner struct {
	sessionID  uint
	roster     []RosterEntry
	thresholds Thresholds
	interval   time.Duration

	frames   FrameSource
	detector Detector
	sink     Sink
	notifier Notifier

	inFlight atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner builds a runner for one session. The roster is read-only for the
// lifetime of the loop; descriptor registration mid-session is not supported.
func NewRunner(sessionID uint, roster []RosterEntry, th Thresholds, interval time.Duration,
	frames FrameSource, detector Detector, sink Sink, notifier Notifier) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		sessionID:  sessionID,
		roster:     roster,
		thresholds: th,
		interval:   interval,
		frames:     frames,
		detector:   detector,
		sink:       sink,
		notifier:   notifier,
	}
}

// Start schedules the loop. It is a no-op if the loop is already running.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx)
	log.Printf("recognition: runner started for session %d (interval %s)", r.sessionID, r.interval)
}

// Stop cancels scheduling immediately. An in-flight attempt is allowed to
// finish; its write is still protected by the sink's de-duplication guard.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Printf("recognition: runner stopped for session %d", r.sessionID)
}

// Running reports whether the loop is currently scheduled.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.inFlight.CompareAndSwap(false, true) {
				// previous attempt still running, skip this tick
				continue
			}
			go func() {
				defer r.inFlight.Store(false)
				r.attempt(ctx)
			}()
		}
	}
}

// attempt runs one full detect→rank→decide cycle. Upstream failures are
// reported and retried on the next tick; they never terminate the loop.
func (r *Runner) attempt(ctx context.Context) {
	frame, ok := r.frames.Latest()
	if !ok {
		return
	}

	detections, err := r.detector.Detect(ctx, frame)
	if err != nil {
		log.Printf("recognition: session %d: detection failed: %v", r.sessionID, err)
		r.notifier.AttemptFailed(r.sessionID, err)
		return
	}
	if len(detections) == 0 {
		r.notifier.NoFace(r.sessionID)
		return
	}

	for _, det := range detections {
		if ctx.Err() != nil {
			return
		}
		decision := Decide(Rank(det.Descriptor, r.roster), r.thresholds)
		switch decision.Outcome {
		case OutcomeNoMatch:
			r.notifier.NoMatch(r.sessionID)
		case OutcomeSuggest:
			r.notifier.Suggested(r.sessionID, decision.Best, decision.Suggestions)
		case OutcomeAutoMark:
			if err := r.sink.MarkRecognized(ctx, r.sessionID, decision.Best.StudentID, decision.Best.Confidence, frame); err != nil {
				log.Printf("recognition: session %d: failed to mark student %d: %v", r.sessionID, decision.Best.StudentID, err)
				r.notifier.AttemptFailed(r.sessionID, err)
				continue
			}
			r.notifier.Marked(r.sessionID, decision.Best)
		}
	}
}
