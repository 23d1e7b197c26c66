package recognition

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFrames struct {
	frame []byte
}

func (s *stubFrames) Latest() ([]byte, bool) {
	return s.frame, s.frame != nil
}

type stubDetector struct {
	mu         sync.Mutex
	calls      int
	delay      time.Duration
	detections []Detection
	err        error
}

func (d *stubDetector) Detect(ctx context.Context, frame []byte) ([]Detection, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	return d.detections, d.err
}

func (d *stubDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type markCall struct {
	studentID  uint
	confidence float64
}

type recordingSink struct {
	mu    sync.Mutex
	marks []markCall
}

func (s *recordingSink) MarkRecognized(ctx context.Context, sessionID, studentID uint, confidence float64, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = append(s.marks, markCall{studentID: studentID, confidence: confidence})
	return nil
}

func (s *recordingSink) all() []markCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]markCall(nil), s.marks...)
}

type recordingNotifier struct {
	mu        sync.Mutex
	noFace    int
	noMatch   int
	failed    int
	marked    []Candidate
	suggested [][]Candidate
}

func (n *recordingNotifier) NoFace(sessionID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.noFace++
}

func (n *recordingNotifier) NoMatch(sessionID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.noMatch++
}

func (n *recordingNotifier) Suggested(sessionID uint, best Candidate, others []Candidate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.suggested = append(n.suggested, append([]Candidate{best}, others...))
}

func (n *recordingNotifier) Marked(sessionID uint, best Candidate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.marked = append(n.marked, best)
}

func (n *recordingNotifier) AttemptFailed(sessionID uint, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed++
}

func (n *recordingNotifier) counts() (noFace, noMatch, failed int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.noFace, n.noMatch, n.failed
}

func runFor(t *testing.T, r *Runner, d time.Duration) {
	t.Helper()
	r.Start(context.Background())
	time.Sleep(d)
	r.Stop()
}

func TestRunnerEndToEndScenario(t *testing.T) {
	probe := uniform(0)
	roster := []RosterEntry{
		{StudentID: 1, Name: "Alice", Descriptors: []Descriptor{offsetBy(probe, 0.9), offsetBy(probe, 0.25)}},
		{StudentID: 2, Name: "Bob"}, // zero descriptors, can never be a candidate
	}

	detector := &stubDetector{detections: []Detection{{Descriptor: probe}}}
	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	r := NewRunner(1, roster, DefaultThresholds(), 5*time.Millisecond,
		&stubFrames{frame: []byte("frame")}, detector, sink, notifier)

	runFor(t, r, 60*time.Millisecond)

	marks := sink.all()
	require.NotEmpty(t, marks)
	for _, m := range marks {
		assert.Equal(t, uint(1), m.studentID)
		assert.InDelta(t, 0.75, m.confidence, 1e-9)
	}
}

func TestRunnerSkipsOverlappingTicks(t *testing.T) {
	detector := &stubDetector{delay: 80 * time.Millisecond}
	r := NewRunner(1, nil, DefaultThresholds(), 10*time.Millisecond,
		&stubFrames{frame: []byte("frame")}, detector, &recordingSink{}, &recordingNotifier{})

	runFor(t, r, 100*time.Millisecond)

	// with a 10ms interval and an 80ms detector, almost every tick overlaps
	// and must be skipped, not queued
	assert.LessOrEqual(t, detector.callCount(), 3)
	assert.GreaterOrEqual(t, detector.callCount(), 1)
}

func TestRunnerReportsNoFace(t *testing.T) {
	detector := &stubDetector{} // zero detections
	notifier := &recordingNotifier{}
	r := NewRunner(1, nil, DefaultThresholds(), 5*time.Millisecond,
		&stubFrames{frame: []byte("frame")}, detector, &recordingSink{}, notifier)

	runFor(t, r, 40*time.Millisecond)

	noFace, _, _ := notifier.counts()
	assert.Greater(t, noFace, 0)
}

func TestRunnerReportsNoMatch(t *testing.T) {
	probe := uniform(0)
	roster := []RosterEntry{
		{StudentID: 1, Name: "Alice", Descriptors: []Descriptor{offsetBy(probe, 0.95)}},
	}
	detector := &stubDetector{detections: []Detection{{Descriptor: probe}}}
	notifier := &recordingNotifier{}
	sink := &recordingSink{}
	r := NewRunner(1, roster, DefaultThresholds(), 5*time.Millisecond,
		&stubFrames{frame: []byte("frame")}, detector, sink, notifier)

	runFor(t, r, 40*time.Millisecond)

	_, noMatch, _ := notifier.counts()
	assert.Greater(t, noMatch, 0)
	assert.Empty(t, sink.all())
}

func TestRunnerContinuesAfterDetectorError(t *testing.T) {
	detector := &stubDetector{err: assert.AnError}
	notifier := &recordingNotifier{}
	r := NewRunner(1, nil, DefaultThresholds(), 5*time.Millisecond,
		&stubFrames{frame: []byte("frame")}, detector, &recordingSink{}, notifier)

	runFor(t, r, 50*time.Millisecond)

	_, _, failed := notifier.counts()
	assert.Greater(t, failed, 1, "loop must keep retrying after upstream failures")
}

func TestRunnerIdleWithoutFrames(t *testing.T) {
	detector := &stubDetector{}
	r := NewRunner(1, nil, DefaultThresholds(), 5*time.Millisecond,
		&stubFrames{}, detector, &recordingSink{}, &recordingNotifier{})

	runFor(t, r, 40*time.Millisecond)

	assert.Zero(t, detector.callCount())
}

func TestRunnerStartStopIdempotent(t *testing.T) {
	r := NewRunner(1, nil, DefaultThresholds(), 5*time.Millisecond,
		&stubFrames{}, &stubDetector{}, &recordingSink{}, &recordingNotifier{})

	r.Start(context.Background())
	r.Start(context.Background()) // second start is a no-op
	assert.True(t, r.Running())

	r.Stop()
	assert.False(t, r.Running())
	r.Stop() // second stop is a no-op
}
