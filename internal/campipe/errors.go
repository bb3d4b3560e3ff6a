package campipe

import "strings"

// ErrorCategory classifies pipeline bus errors for telemetry.
type ErrorCategory int

const (
	// ErrCategoryDevice indicates capture-device failures (missing device,
	// busy device, permission denied).
	ErrCategoryDevice ErrorCategory = iota
	// ErrCategoryFormat indicates format/negotiation failures (caps not
	// negotiated, missing converter plugin).
	ErrCategoryFormat
	// ErrCategoryUnknown indicates unclassified errors.
	ErrCategoryUnknown
)

// String returns a human-readable name for the category.
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryDevice:
		return "device"
	case ErrCategoryFormat:
		return "format"
	default:
		return "unknown"
	}
}

// ClassifyPipelineError categorizes a pipeline bus error by its message
// and debug text.
//
// Device errors usually mean the camera is gone or claimed elsewhere
// (restart may help once it frees up); format errors mean the negotiated
// caps or plugins are wrong (a restart will hit the same wall).
// GStreamer's GError does not expose a usable domain through the binding,
// so classification relies on message heuristics.
func ClassifyPipelineError(errMsg, debugStr string) ErrorCategory {
	combined := strings.ToLower(errMsg) + " " + strings.ToLower(debugStr)

	if containsAny(combined,
		"device", "/dev/video", "v4l2", "busy", "permission",
		"no such file", "not found", "could not open", "disconnected",
	) {
		return ErrCategoryDevice
	}

	if containsAny(combined,
		"format", "caps", "negotiat", "not-negotiated", "missing plugin",
		"no element", "convert", "colorspace",
	) {
		return ErrCategoryFormat
	}

	return ErrCategoryUnknown
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
