package campipe

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// ErrSampleExtraction indicates the appsink delivered a sample whose
// metadata or buffer could not be read. The frame is lost; the pipeline's
// own error-recovery policy decides whether the stream continues.
var ErrSampleExtraction = errors.New("sample extraction failed")

// RawSample is one frame pulled off the appsink before normalization:
// the negotiated caps format name, the dimensions the caps declare, and a
// private copy of the pixel bytes.
type RawSample struct {
	Format string
	Width  int
	Height int
	Data   []byte
}

// ExtractSample pulls the pending sample from the appsink and unpacks it.
//
// The buffer is copied before the sample is released — GStreamer reuses
// its buffers, so the returned Data is the only safe reference. Any
// missing metadata (caps, structure, format, dimensions) or an unreadable
// buffer yields ErrSampleExtraction.
func ExtractSample(sink *app.Sink) (RawSample, error) {
	sample := sink.PullSample()
	if sample == nil {
		return RawSample{}, fmt.Errorf("%w: no sample available", ErrSampleExtraction)
	}

	caps := sample.GetCaps()
	if caps == nil {
		return RawSample{}, fmt.Errorf("%w: sample has no caps", ErrSampleExtraction)
	}

	structure := caps.GetStructureAt(0)
	if structure == nil {
		return RawSample{}, fmt.Errorf("%w: caps have no structure", ErrSampleExtraction)
	}

	format, err := structureString(structure, "format")
	if err != nil {
		return RawSample{}, err
	}
	width, err := structureInt(structure, "width")
	if err != nil {
		return RawSample{}, err
	}
	height, err := structureInt(structure, "height")
	if err != nil {
		return RawSample{}, err
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return RawSample{}, fmt.Errorf("%w: sample has no buffer", ErrSampleExtraction)
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		return RawSample{}, fmt.Errorf("%w: empty buffer", ErrSampleExtraction)
	}

	// Copy frame data (GStreamer will reuse the buffer)
	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	slog.Debug("cam-capture: sample extracted",
		"format", format,
		"width", width,
		"height", height,
		"size_bytes", len(frameData),
	)

	return RawSample{
		Format: format,
		Width:  width,
		Height: height,
		Data:   frameData,
	}, nil
}

func structureString(s capsStructure, field string) (string, error) {
	v, err := s.GetValue(field)
	if err != nil {
		return "", fmt.Errorf("%w: caps field %q missing: %v", ErrSampleExtraction, field, err)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: caps field %q is not a string", ErrSampleExtraction, field)
	}
	return str, nil
}

func structureInt(s capsStructure, field string) (int, error) {
	v, err := s.GetValue(field)
	if err != nil {
		return 0, fmt.Errorf("%w: caps field %q missing: %v", ErrSampleExtraction, field, err)
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("%w: caps field %q is not an int", ErrSampleExtraction, field)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: caps field %q is %d", ErrSampleExtraction, field, n)
	}
	return n, nil
}

// capsStructure is the slice of the gst.Structure API the extractor needs;
// narrowing it keeps the field accessors testable without a live pipeline.
type capsStructure interface {
	GetValue(key string) (interface{}, error)
}
