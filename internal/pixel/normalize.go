// Package pixel converts raw video buffers into the canonical frame layout.
//
// Every frame handed to consumers is interleaved 3-channel RGB
// (RGBRGBRGB...), regardless of what the capture pipeline negotiated.
// Normalization is a pure function: no shared state, the only side effect
// is the allocation of the output buffer.
package pixel

import (
	"errors"
	"fmt"
)

// Channels is the channel count of the canonical layout.
const Channels = 3

var (
	// ErrMalformedFrame indicates a buffer whose length does not match its
	// declared dimensions and format. The frame must be dropped, never
	// silently truncated.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnsupportedFormat indicates a pixel layout this module does not
	// normalize. The frame must be dropped.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
)

// Format identifies the pixel layout of an incoming buffer.
//
// Formats are transient: they describe a buffer on its way through
// Normalize and are never attached to a stored frame.
type Format int

const (
	// FormatUnknown is the zero value; Normalize rejects it.
	FormatUnknown Format = iota
	// FormatRGB8 is interleaved 8-bit RGB (already canonical order).
	FormatRGB8
	// FormatRGBA8 is interleaved 8-bit RGBA; alpha is discarded.
	FormatRGBA8
	// FormatBGR8 is interleaved 8-bit BGR.
	FormatBGR8
	// FormatBGRA8 is interleaved 8-bit BGRA; alpha is discarded.
	FormatBGRA8
)

// String returns the GStreamer caps name for the format.
func (f Format) String() string {
	switch f {
	case FormatRGB8:
		return "RGB"
	case FormatRGBA8:
		return "RGBA"
	case FormatBGR8:
		return "BGR"
	case FormatBGRA8:
		return "BGRA"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the per-pixel stride of the format, or 0 for
// unsupported formats.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGB8, FormatBGR8:
		return 3
	case FormatRGBA8, FormatBGRA8:
		return 4
	default:
		return 0
	}
}

// offsets returns the position of the R, G and B samples inside one pixel.
func (f Format) offsets() (r, g, b int) {
	switch f {
	case FormatRGB8, FormatRGBA8:
		return 0, 1, 2
	default: // BGR8, BGRA8
		return 2, 1, 0
	}
}

// ParseFormat maps a GStreamer caps format name to a Format.
// Unknown names map to FormatUnknown (caller decides whether to drop).
func ParseFormat(name string) Format {
	switch name {
	case "RGB":
		return FormatRGB8
	case "RGBA":
		return FormatRGBA8
	case "BGR":
		return FormatBGR8
	case "BGRA":
		return FormatBGRA8
	default:
		return FormatUnknown
	}
}

// Normalize converts data from the given format into a freshly allocated
// canonical RGB buffer of length width*height*Channels.
//
// Alpha channels are discarded, never premultiplied. Channel order is
// rearranged as needed; sample values are never changed.
//
// Returns ErrUnsupportedFormat for formats with no known layout and
// ErrMalformedFrame when len(data) does not equal width*height*bpp.
func Normalize(data []byte, width, height int, format Format) ([]byte, error) {
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrMalformedFrame, width, height)
	}

	expected := width * height * bpp
	if len(data) != expected {
		return nil, fmt.Errorf(
			"%w: %s buffer is %d bytes, want %d (%dx%dx%d)",
			ErrMalformedFrame, format, len(data), expected, width, height, bpp,
		)
	}

	pixels := width * height
	out := make([]byte, pixels*Channels)

	// RGB8 is already canonical: single copy, no per-pixel loop.
	if format == FormatRGB8 {
		copy(out, data)
		return out, nil
	}

	rOff, gOff, bOff := format.offsets()
	for i := 0; i < pixels; i++ {
		src := i * bpp
		dst := i * Channels
		out[dst+0] = data[src+rOff]
		out[dst+1] = data[src+gOff]
		out[dst+2] = data[src+bOff]
	}

	return out, nil
}
