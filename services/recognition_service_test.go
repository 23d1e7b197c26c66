package services

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/recognition"
)

type stubLoopDetector struct {
	mu         sync.Mutex
	calls      int
	detections []recognition.Detection
}

func (d *stubLoopDetector) Detect(ctx context.Context, frame []byte) ([]recognition.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.detections, nil
}

func (d *stubLoopDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type nopNotifier struct{}

func (nopNotifier) NoFace(uint)                                                {}
func (nopNotifier) NoMatch(uint)                                               {}
func (nopNotifier) Suggested(uint, recognition.Candidate, []recognition.Candidate) {}
func (nopNotifier) Marked(uint, recognition.Candidate)                         {}
func (nopNotifier) AttemptFailed(uint, error)                                  {}

// offsetVector returns a copy of base at the given euclidean distance.
func offsetVector(base []float64, dist float64) []float64 {
	out := make([]float64, len(base))
	delta := dist / math.Sqrt(float64(len(base)))
	for i, v := range base {
		out[i] = v + delta
	}
	return out
}

func newLoopFixture(t *testing.T) (*RecognitionService, *fakeSessionRepo, *fakeLogRepo, *stubLoopDetector, *models.AttendanceSession) {
	t.Helper()

	sessions := newFakeSessionRepo()
	logs := &fakeLogRepo{}
	classes := &fakeClassRepo{roster: map[uint][]models.User{
		1: {{ID: 10, Name: "Alice"}},
	}}

	probe := uniformVector(0.1)
	faces := &fakeFaceRepo{profiles: map[uint]*models.FaceProfile{
		10: {UserID: 10, RawData: descriptorJSON(t, [][][]float64{
			{offsetVector(probe, 0.25)}, // similarity 0.75, clears auto-mark
		})},
	}}

	detector := &stubLoopDetector{detections: []recognition.Detection{{Descriptor: probe}}}
	attendance := NewAttendanceService(sessions, logs, classes)
	roster := NewRosterService(classes, faces)
	svc := NewRecognitionService(detector, roster, attendance, sessions, nil, nopNotifier{},
		recognition.DefaultThresholds(), 10*time.Millisecond)

	session := &models.AttendanceSession{ClassID: 1}
	require.NoError(t, sessions.Create(session))
	return svc, sessions, logs, detector, session
}

func TestLoopProcessesFramesAfterStartReturns(t *testing.T) {
	svc, sessions, logs, detector, session := newLoopFixture(t)

	require.NoError(t, svc.StartLoop(session.ID))
	defer svc.Shutdown()
	require.True(t, svc.LoopRunning(session.ID))

	got, err := sessions.GetByID(session.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionActive, got.Status)

	// the frame arrives well after StartLoop returned; the loop must still be
	// ticking and pick it up
	require.NoError(t, svc.SubmitFrame(session.ID, []byte("frame")))

	require.Eventually(t, func() bool {
		return logs.count() > 0
	}, 2*time.Second, 10*time.Millisecond, "submitted frame never produced an attendance mark")
	require.Greater(t, detector.callCount(), 0)

	entries := logs.all()
	require.Equal(t, uint(10), entries[0].StudentID)
	require.Equal(t, models.AttendancePresent, entries[0].Status)
	require.True(t, entries[0].Recognized)
	require.NotNil(t, entries[0].Confidence)
	require.InDelta(t, 0.75, *entries[0].Confidence, 1e-9)
}

func TestStopLoopHaltsProcessing(t *testing.T) {
	svc, _, _, detector, session := newLoopFixture(t)

	require.NoError(t, svc.StartLoop(session.ID))
	require.NoError(t, svc.SubmitFrame(session.ID, []byte("frame")))
	require.Eventually(t, func() bool {
		return detector.callCount() > 0
	}, 2*time.Second, 10*time.Millisecond)

	svc.StopLoop(session.ID)
	require.False(t, svc.LoopRunning(session.ID))

	// an attempt already in flight at stop time may still finish; let it drain
	time.Sleep(30 * time.Millisecond)
	calls := detector.callCount()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, calls, detector.callCount(), "loop must not tick after stop")

	// the buffer is gone with the loop
	require.Error(t, svc.SubmitFrame(session.ID, []byte("frame")))
}

func TestStartLoopIsIdempotent(t *testing.T) {
	svc, _, _, _, session := newLoopFixture(t)

	require.NoError(t, svc.StartLoop(session.ID))
	defer svc.Shutdown()
	require.NoError(t, svc.StartLoop(session.ID))
	require.True(t, svc.LoopRunning(session.ID))
}

func TestSubmitFrameWithoutLoop(t *testing.T) {
	svc, _, _, _, session := newLoopFixture(t)
	require.Error(t, svc.SubmitFrame(session.ID, []byte("frame")))
}
