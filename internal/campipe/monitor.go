package campipe

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCounters holds atomic counters for bus-error telemetry.
type ErrorCounters struct {
	Device  *uint64
	Format  *uint64
	Unknown *uint64
}

// MonitorBus polls the pipeline bus until ctx is cancelled.
//
// Bus errors are classified, counted and logged but never escalate: the
// capture stream stays alive until the caller stops it, and the device's
// own recovery (replug, renegotiation) decides whether frames resume.
// EOS is logged the same way — a camera that stops emitting is an
// operational event, not a crash.
func MonitorBus(ctx context.Context, pipeline *gst.Pipeline, counters ErrorCounters) {
	if pipeline == nil {
		return
	}

	bus := pipeline.GetPipelineBus()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("cam-capture: context cancelled, stopping bus monitor")
			return

		default:
			// Poll with short timeout for responsive shutdown
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				slog.Info("cam-capture: end of stream on capture pipeline")

			case gst.MessageError:
				gerr := msg.ParseError()
				category := ClassifyPipelineError(gerr.Error(), gerr.DebugString())

				switch category {
				case ErrCategoryDevice:
					atomic.AddUint64(counters.Device, 1)
				case ErrCategoryFormat:
					atomic.AddUint64(counters.Format, 1)
				default:
					atomic.AddUint64(counters.Unknown, 1)
				}

				slog.Error("cam-capture: pipeline error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"category", category.String(),
				)

			case gst.MessageStateChanged:
				if msg.Source() == pipeline.GetName() {
					old, new := msg.ParseStateChanged()
					slog.Debug("cam-capture: pipeline state changed",
						"from", old,
						"to", new,
					)
				}
			}
		}
	}
}
