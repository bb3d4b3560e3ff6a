// Package camcapture provides live camera frame acquisition using GStreamer.
//
// It opens a capture device, continuously receives raw frames on the
// appsink callback thread, normalizes them to canonical interleaved RGB
// (3 bytes per pixel, row-major, top-to-bottom), and exposes the most
// recent frame to a polling consumer through a named, pull-based,
// invalidate-on-read provider surface.
//
// # Quick Start
//
//	session, err := camcapture.Open(camcapture.CamConfig{
//	    Device: "/dev/video0",
//	    Name:   "webcam",
//	    Width:  640,
//	    Height: 480,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	// Poll once per render tick
//	if frame := session.Get("webcam", true); frame != nil {
//	    // frame.Data is frame.Width × frame.Height × 3 bytes of RGB
//	    uploadTexture(frame)
//	}
//
// # Hand-off Model
//
// Frames cross exactly one boundary: a single-slot mailbox between the
// GStreamer streaming thread (writer) and the consumer's polling thread
// (reader). Writes overwrite — last writer wins, no queueing, no
// backpressure. Reads either peek (repeatable) or invalidate (consume).
// Stale frames are worthless to a compositor; dropping them is the
// point, not a failure mode.
//
// The slot's mutex covers the (dimensions, data) pair as one unit and is
// held only for the swap. Normalization runs on the streaming thread
// before the lock is taken, so a slow consumer can never stall the
// pipeline and a fast pipeline can never tear a frame mid-read.
//
// # Frame Format
//
// All frames are delivered in one canonical layout regardless of what the
// device negotiated:
//
//   - Interleaved RGB (RGBRGBRGB...), 8 bits per sample
//   - Size: Width × Height × 3 bytes
//   - Vertically flipped by the pipeline (top-to-bottom row order)
//
// RGBA/BGRA sources have their alpha discarded (never premultiplied);
// BGR-ordered sources are reordered. Sample values are never changed.
//
// # Lifecycle
//
// A session follows an explicit state machine, checked locally before any
// pipeline call:
//
//	Open → Playing ⇄ Paused → Stopped (terminal)
//
// Play after Stop is rejected with ErrStateTransition; a stopped session
// is never resurrected — open a new one. Close() stops the pipeline and
// never escalates teardown failures.
//
// # Error Handling
//
// Construction and lifecycle commands surface failures to the caller
// (ErrPipelineInit, ErrStateTransition). Steady-state per-frame failures
// (ErrMalformedFrame, ErrUnsupportedFormat, extraction errors) are
// logged and swallowed to keep the stream alive. Bus errors are
// classified (device/format/unknown) into Stats() counters.
//
// # Dependencies
//
// GStreamer 1.x must be installed on the system:
//
//	# Ubuntu/Debian
//	sudo apt-get install \
//	    gstreamer1.0-tools \
//	    gstreamer1.0-plugins-base \
//	    gstreamer1.0-plugins-good
//
// Verify the capture source:
//
//	gst-inspect-1.0 v4l2src
package camcapture
