package camcapture

import (
	"errors"
	"testing"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/orion-care-sensor/modules/cam-capture/internal/campipe"
	"github.com/e7canasta/orion-care-sensor/modules/cam-capture/internal/frameslot"
)

// newTestSession builds a session around a bare frame slot, skipping
// pipeline construction so the hand-off and facade logic can be exercised
// without a capture device.
func newTestSession(name string, width, height int) *CamSession {
	s := &CamSession{
		name:   name,
		width:  width,
		height: height,
		slot:   frameslot.New(width, height),
	}
	s.state.Store(int32(StatePlaying))
	return s
}

// rawSample builds a delivery-thread sample with every pixel set to the
// given channel values in the declared format.
func rawSample(format string, width, height int, px ...byte) campipe.RawSample {
	data := make([]byte, width*height*len(px))
	for i := 0; i < width*height; i++ {
		copy(data[i*len(px):], px)
	}
	return campipe.RawSample{Format: format, Width: width, Height: height, Data: data}
}

func TestGet_NameMatching(t *testing.T) {
	s := newTestSession("webcam", 2, 2)
	if err := s.ingest(rawSample("RGB", 2, 2, 1, 2, 3)); err != nil {
		t.Fatalf("ingest() unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		requested string
		wantFrame bool
	}{
		{"exact match", "webcam", true},
		{"mismatch", "other", false},
		{"empty name", "", false},
		{"case sensitive", "Webcam", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Get(tt.requested, false)
			if (got != nil) != tt.wantFrame {
				t.Errorf("Get(%q) returned frame=%v, want %v", tt.requested, got != nil, tt.wantFrame)
			}
		})
	}
}

func TestGet_InvalidateSemantics(t *testing.T) {
	s := newTestSession("webcam", 2, 2)
	if err := s.ingest(rawSample("RGB", 2, 2, 1, 2, 3)); err != nil {
		t.Fatalf("ingest() unexpected error: %v", err)
	}

	// Peeks repeat the same frame indefinitely.
	first := s.Get("webcam", false)
	second := s.Get("webcam", false)
	if first == nil || second == nil {
		t.Fatal("peek returned nil with a frame pending")
	}
	if first.Seq != second.Seq {
		t.Errorf("repeated peeks returned different frames: seq %d then %d", first.Seq, second.Seq)
	}

	// Invalidating read consumes.
	if got := s.Get("webcam", true); got == nil {
		t.Fatal("Get(invalidate=true) returned nil with a frame pending")
	}
	if got := s.Get("webcam", true); got != nil {
		t.Error("second Get(invalidate=true) returned a frame without a new write")
	}
}

func TestIngest_MalformedIsolation(t *testing.T) {
	s := newTestSession("webcam", 2, 2)

	if err := s.ingest(rawSample("RGB", 2, 2, 10, 10, 10)); err != nil {
		t.Fatalf("ingest(valid) unexpected error: %v", err)
	}

	// Truncated buffer: declared RGBA but RGB-sized payload.
	bad := rawSample("RGBA", 2, 2, 1, 2, 3, 4)
	bad.Data = bad.Data[:2*2*3]
	if err := s.ingest(bad); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("ingest(malformed) error = %v, want ErrMalformedFrame", err)
	}

	// Unknown layout is dropped the same way.
	if err := s.ingest(rawSample("NV12", 2, 2, 1, 2)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("ingest(NV12) error = %v, want ErrUnsupportedFormat", err)
	}

	// The slot still reflects the frame before the malformed one.
	got := s.Get("webcam", false)
	if got == nil {
		t.Fatal("malformed frame emptied the slot")
	}
	if got.Data[0] != 10 {
		t.Errorf("slot data = %d, want 10 (frame preceding the malformed one)", got.Data[0])
	}

	stats := s.Stats()
	if stats.FramesReceived != 1 {
		t.Errorf("FramesReceived = %d, want 1", stats.FramesReceived)
	}
	if stats.FramesDropped != 2 {
		t.Errorf("FramesDropped = %d, want 2", stats.FramesDropped)
	}
}

// TestScenario_RGBACapture is the full hand-off path at 640x480: an RGBA
// notification of constant (255,0,0,255) must surface through Get as a
// 640*480*3 buffer of pure red, consumed by the invalidating read.
func TestScenario_RGBACapture(t *testing.T) {
	s := newTestSession("cam0", 640, 480)

	if err := s.ingest(rawSample("RGBA", 640, 480, 255, 0, 0, 255)); err != nil {
		t.Fatalf("ingest() unexpected error: %v", err)
	}

	frame := s.Get("cam0", true)
	if frame == nil {
		t.Fatal("Get() returned nil after delivery")
	}
	if frame.Width != 640 || frame.Height != 480 || frame.Channels != 3 {
		t.Fatalf("frame dimensions = %dx%dx%d, want 640x480x3",
			frame.Width, frame.Height, frame.Channels)
	}
	if len(frame.Data) != 640*480*3 {
		t.Fatalf("frame data length = %d, want %d", len(frame.Data), 640*480*3)
	}
	for i := 0; i < len(frame.Data); i += 3 {
		if frame.Data[i] != 255 || frame.Data[i+1] != 0 || frame.Data[i+2] != 0 {
			t.Fatalf("pixel %d = (%d,%d,%d), want (255,0,0)",
				i/3, frame.Data[i], frame.Data[i+1], frame.Data[i+2])
		}
	}
	if frame.TraceID == "" {
		t.Error("frame has no trace ID")
	}

	if got := s.Get("cam0", true); got != nil {
		t.Error("second Get() returned a frame without a new delivery")
	}
}

func TestLifecycle_NoResurrection(t *testing.T) {
	s := newTestSession("webcam", 2, 2)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() unexpected error: %v", err)
	}
	if s.State() != StateStopped {
		t.Fatalf("State() after Stop = %s, want stopped", s.State())
	}

	// Idempotent stop
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() unexpected error: %v", err)
	}

	if err := s.Play(); !errors.Is(err, ErrStateTransition) {
		t.Errorf("Play() after Stop error = %v, want ErrStateTransition", err)
	}
	if err := s.Pause(); !errors.Is(err, ErrStateTransition) {
		t.Errorf("Pause() after Stop error = %v, want ErrStateTransition", err)
	}
}

func TestLifecycle_NotificationsAfterStop(t *testing.T) {
	s := newTestSession("webcam", 2, 2)
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() unexpected error: %v", err)
	}

	// The delivery thread may still race one last notification in; it must
	// be dropped without touching the sink and without crashing.
	for i := 0; i < 5; i++ {
		if ret := s.onNewSample(nil); ret != gst.FlowOK {
			t.Fatalf("onNewSample() after Stop = %v, want FlowOK", ret)
		}
	}

	if got := s.Stats().FramesDropped; got != 5 {
		t.Errorf("FramesDropped = %d, want 5", got)
	}
}

func TestSetName_Rebind(t *testing.T) {
	s := newTestSession("front", 2, 2)
	if err := s.ingest(rawSample("RGB", 2, 2, 9, 9, 9)); err != nil {
		t.Fatalf("ingest() unexpected error: %v", err)
	}

	if got := s.Provides(); len(got) != 1 || got[0] != "front" {
		t.Fatalf("Provides() = %v, want [front]", got)
	}

	s.SetName("rear")

	if got := s.Provides(); len(got) != 1 || got[0] != "rear" {
		t.Errorf("Provides() after SetName = %v, want [rear]", got)
	}
	if s.Get("front", false) != nil {
		t.Error("Get() matched the old name after SetName")
	}
	if s.Get("rear", false) == nil {
		t.Error("Get() did not match the new name after SetName")
	}
}

func TestSetProperty_NoOp(t *testing.T) {
	s := newTestSession("webcam", 2, 2)
	// Reported, never fatal.
	s.SetProperty("exposure", 0.5)
	s.SetProperty("", nil)
}

func TestStats_Counters(t *testing.T) {
	s := newTestSession("webcam", 4, 4)

	for i := 0; i < 3; i++ {
		if err := s.ingest(rawSample("BGR", 4, 4, 3, 2, 1)); err != nil {
			t.Fatalf("ingest() unexpected error: %v", err)
		}
	}

	stats := s.Stats()
	if stats.FramesReceived != 3 {
		t.Errorf("FramesReceived = %d, want 3", stats.FramesReceived)
	}
	if stats.BytesRead != 3*4*4*3 {
		t.Errorf("BytesRead = %d, want %d", stats.BytesRead, 3*4*4*3)
	}
	if stats.LastFrameAt.IsZero() {
		t.Error("LastFrameAt is zero after deliveries")
	}
	if stats.Resolution != "4x4" {
		t.Errorf("Resolution = %q, want 4x4", stats.Resolution)
	}
	if stats.State != StatePlaying {
		t.Errorf("State = %s, want playing", stats.State)
	}

	// Sequence numbers are monotonic across the slot.
	if frame := s.Get("webcam", true); frame == nil || frame.Seq != 3 {
		t.Errorf("latest frame seq = %v, want 3", frame)
	}
}
