package camcapture

import (
	"errors"

	"github.com/e7canasta/orion-care-sensor/modules/cam-capture/internal/pixel"
)

var (
	// ErrPipelineInit indicates the capture pipeline could not be
	// constructed or started. Fatal to Open: no session is created.
	ErrPipelineInit = errors.New("pipeline initialization failed")

	// ErrStateTransition indicates the pipeline rejected a
	// play/pause/stop request, or the request was illegal for the
	// session's current state (e.g. Play after Stop).
	ErrStateTransition = errors.New("state transition failed")

	// ErrMalformedFrame is returned by normalization when a buffer's
	// length does not match its declared dimensions and format.
	// Per-frame and non-fatal: the frame is dropped, the session lives.
	ErrMalformedFrame = pixel.ErrMalformedFrame

	// ErrUnsupportedFormat is returned by normalization for pixel layouts
	// this module does not handle. Per-frame and non-fatal.
	ErrUnsupportedFormat = pixel.ErrUnsupportedFormat
)
