// Package campipe builds and services the GStreamer capture pipeline.
//
// It owns everything that touches go-gst directly: element construction,
// appsink sample extraction, bus-error classification and the process-wide
// library initialization. The parent package only sees raw samples and
// plain errors.
package campipe

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// PipelineConfig contains configuration for capture pipeline creation.
type PipelineConfig struct {
	// Device is the capture device path (e.g. /dev/video0). Empty selects
	// the platform's automatic video source.
	Device string
	Width  int
	Height int
}

// PipelineElements holds references to pipeline elements needed for
// lifecycle control and cleanup.
type PipelineElements struct {
	Pipeline *gst.Pipeline
	AppSink  *app.Sink
	Source   *gst.Element
}

var gstInit sync.Once

// InitOnce performs process-wide GStreamer initialization exactly once.
// Safe to call from every session constructor.
func InitOnce() {
	gstInit.Do(func() {
		gst.Init(nil)
		slog.Debug("cam-capture: gstreamer initialized")
	})
}

// CreatePipeline creates and configures the capture pipeline.
//
// Pipeline structure:
//
//	v4l2src|autovideosrc → videoconvert → videoscale →
//	capsfilter({RGB,RGBA,BGR,BGRA} @ WxH) → videoflip(vertical) → appsink
//
// The vertical flip is the pipeline's responsibility: frames reach the
// appsink already row-major top-to-bottom, so normalization never touches
// row order. The pipeline is configured but NOT started (state stays NULL);
// the caller drives state transitions.
func CreatePipeline(cfg PipelineConfig) (*PipelineElements, error) {
	InitOnce()

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid target resolution %dx%d", cfg.Width, cfg.Height)
	}

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	source, err := newSourceElement(cfg.Device)
	if err != nil {
		return nil, err
	}

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}
	converter.SetProperty("n-threads", 0) // 0 = auto-detect cores

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoscale: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	// Let the converter pick whichever interleaved 8-bit layout the device
	// negotiates cheapest; the normalizer canonicalizes downstream.
	capsStr := fmt.Sprintf(
		"video/x-raw,format={RGB,RGBA,BGR,BGRA},width=%d,height=%d",
		cfg.Width, cfg.Height,
	)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	flip, err := gst.NewElement("videoflip")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoflip: %w", err)
	}
	flip.SetProperty("method", 5) // GST_VIDEO_FLIP_METHOD_VERTICAL_FLIP

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)    // No sync with clock (real-time)
	appsink.SetProperty("max-buffers", 1) // Keep only latest frame
	appsink.SetProperty("drop", true)     // Drop old frames

	pipeline.AddMany(
		source,
		converter,
		scaler,
		capsfilter,
		flip,
		appsink.Element,
	)

	if err := gst.ElementLinkMany(
		source,
		converter,
		scaler,
		capsfilter,
		flip,
		appsink.Element,
	); err != nil {
		return nil, fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	slog.Info("cam-capture: pipeline created",
		"source", source.GetName(),
		"caps", capsStr,
	)

	return &PipelineElements{
		Pipeline: pipeline,
		AppSink:  appsink,
		Source:   source,
	}, nil
}

// newSourceElement selects the capture source.
//
// A non-empty device path on Linux maps to v4l2src; everything else falls
// back to autovideosrc, matching the platform split the capture stack has
// always used.
func newSourceElement(device string) (*gst.Element, error) {
	if device != "" && runtime.GOOS == "linux" {
		source, err := gst.NewElement("v4l2src")
		if err != nil {
			return nil, fmt.Errorf("failed to create v4l2src: %w", err)
		}
		source.SetProperty("device", device)
		return source, nil
	}

	source, err := gst.NewElement("autovideosrc")
	if err != nil {
		return nil, fmt.Errorf("failed to create autovideosrc: %w", err)
	}
	return source, nil
}

// DestroyPipeline releases pipeline resources by forcing the NULL state.
// Safe to call on a nil or already-destroyed pipeline.
func DestroyPipeline(elements *PipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}

	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}

	return nil
}
