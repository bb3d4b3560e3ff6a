package camcapture

import (
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/cam-capture/internal/pixel"
)

// Frame is one decoded image sample in the canonical layout.
type Frame struct {
	// Seq is the monotonic sequence number assigned on arrival.
	Seq uint64
	// Timestamp is when the frame was captured/normalized.
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Channels is always 3 (canonical interleaved RGB).
	Channels int
	// Data contains Width*Height*Channels bytes, row-major, top-to-bottom.
	Data []byte
	// TraceID is a unique identifier for distributed tracing.
	TraceID string
}

// PixelFormat identifies the layout of a raw buffer before normalization.
// Aliased from internal/pixel so the Normalize entry points and the
// session share one enum.
type PixelFormat = pixel.Format

// Supported pixel formats.
const (
	RGB8  = pixel.FormatRGB8
	RGBA8 = pixel.FormatRGBA8
	BGR8  = pixel.FormatBGR8
	BGRA8 = pixel.FormatBGRA8
)

// SessionState is the capture lifecycle state, mirrored locally so
// transition legality is checked here instead of relying on the pipeline's
// error surface.
type SessionState int32

const (
	// StateUninitialized is the zero value before Open completes.
	StateUninitialized SessionState = iota
	// StatePlaying means the pipeline is delivering frames.
	StatePlaying
	// StatePaused means delivery is suspended but resumable.
	StatePaused
	// StateStopped is terminal; a new session must be opened.
	StateStopped
)

// String returns a human-readable name for the state.
func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CamConfig contains configuration for opening a capture session.
type CamConfig struct {
	// Device is the capture device path (e.g. /dev/video0). Empty selects
	// the platform's automatic video source.
	Device string
	// Name is the logical name consumers use to request frames (required).
	Name string
	// Width is the target frame width in pixels (required, > 0).
	Width int
	// Height is the target frame height in pixels (required, > 0).
	Height int
}

// SessionStats is a thread-safe snapshot of session telemetry.
type SessionStats struct {
	// FramesReceived is the number of frames normalized and buffered.
	FramesReceived uint64
	// FramesDropped counts frames discarded before reaching the slot
	// (malformed, unsupported format, or delivered after Stop).
	FramesDropped uint64
	// BytesRead is the total raw bytes pulled off the appsink.
	BytesRead uint64
	// LastFrameAt is the arrival time of the most recent buffered frame.
	LastFrameAt time.Time
	// State is the session lifecycle state at snapshot time.
	State SessionState
	// Name is the logical name at snapshot time.
	Name string
	// Resolution is the target resolution (e.g. "640x480").
	Resolution string
	// ErrorsDevice counts capture-device bus errors.
	ErrorsDevice uint64
	// ErrorsFormat counts format/negotiation bus errors.
	ErrorsFormat uint64
	// ErrorsUnknown counts unclassified bus errors.
	ErrorsUnknown uint64
}
