package camcapture

// InputProvider is the pull-based contract a rendering/compositing system
// polls once per tick to fetch the latest frame for a logical input name.
//
// Implementations must guarantee:
//   - Get() never blocks on pipeline activity
//   - Get() with invalidate=true clears the pending frame, so a second
//     call before a new frame arrives returns nil
//   - Stop() is terminal: no resurrection of a stopped session
//   - all methods are safe for concurrent use
type InputProvider interface {
	// Provides returns the logical names this provider serves.
	Provides() []string

	// Get returns the latest frame if name matches the provider's logical
	// name and a frame is pending, nil otherwise. With invalidate=true the
	// pending frame is consumed; with invalidate=false repeated calls keep
	// returning the same frame until a new one arrives.
	Get(name string, invalidate bool) *Frame

	// SetName rebinds the logical name; affects subsequent Provides/Get
	// matching.
	SetName(name string)

	// SetProperty accepts a configuration write. Providers that support no
	// runtime properties log and ignore unknown keys; writes are never
	// fatal.
	SetProperty(key string, value interface{})

	// Play requests frame delivery (resume after Pause).
	Play() error

	// Pause suspends frame delivery without releasing the device.
	Pause() error

	// Stop halts delivery and releases the capture device. Terminal and
	// idempotent.
	Stop() error
}
