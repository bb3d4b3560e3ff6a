package camcapture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/orion-care-sensor/modules/cam-capture/internal/campipe"
	"github.com/e7canasta/orion-care-sensor/modules/cam-capture/internal/frameslot"
	"github.com/e7canasta/orion-care-sensor/modules/cam-capture/internal/pixel"
)

// CamSession owns one capture pipeline and exposes its latest frame
// through the InputProvider contract.
//
// Exactly two external threads of control touch the hot path: the
// GStreamer streaming thread invoking the appsink callback (writer) and
// the consumer's render loop polling Get (reader). They meet only at the
// frame slot; the pipeline handle itself is owned exclusively by the
// session.
type CamSession struct {
	mu   sync.Mutex
	name string

	device string
	width  int
	height int

	elements *campipe.PipelineElements
	slot     *frameslot.Slot
	state    atomic.Int32 // SessionState

	// Bus monitor lifecycle
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Telemetry (atomic for thread-safety)
	framesReceived uint64
	framesDropped  uint64
	bytesRead      uint64
	lastFrameAt    atomic.Int64 // unix nanos, 0 = never

	errorsDevice  uint64
	errorsFormat  uint64
	errorsUnknown uint64
}

var _ InputProvider = (*CamSession)(nil)

// Open constructs the capture pipeline for cfg and starts it.
//
// Fail-fast validation runs before any pipeline work: the logical name and
// a positive target resolution are required. Pipeline construction or
// startup failure yields ErrPipelineInit and no session.
//
// On success the session is in StatePlaying and frames begin arriving
// asynchronously once the device negotiates (typically well under a
// second for local cameras).
func Open(cfg CamConfig) (*CamSession, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: logical name is required", ErrPipelineInit)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf(
			"%w: invalid target resolution %dx%d",
			ErrPipelineInit, cfg.Width, cfg.Height,
		)
	}

	elements, err := campipe.CreatePipeline(campipe.PipelineConfig{
		Device: cfg.Device,
		Width:  cfg.Width,
		Height: cfg.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPipelineInit, err)
	}

	s := &CamSession{
		name:     cfg.Name,
		device:   cfg.Device,
		width:    cfg.Width,
		height:   cfg.Height,
		elements: elements,
		slot:     frameslot.New(cfg.Width, cfg.Height),
	}

	elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: s.onNewSample,
	})

	if err := elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		_ = campipe.DestroyPipeline(elements)
		return nil, fmt.Errorf("%w: failed to start pipeline: %v", ErrPipelineInit, err)
	}

	// Wait briefly for the pipeline to report PLAYING; late arrival is not
	// an error, frames simply start later.
	bus := elements.Pipeline.GetPipelineBus()
	if msg := bus.TimedPop(5 * time.Second); msg != nil && msg.Type() == gst.MessageStateChanged {
		if _, newState := msg.ParseStateChanged(); newState == gst.StatePlaying {
			slog.Info("cam-capture: pipeline reached PLAYING state")
		}
	}

	s.state.Store(int32(StatePlaying))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		campipe.MonitorBus(ctx, elements.Pipeline, campipe.ErrorCounters{
			Device:  &s.errorsDevice,
			Format:  &s.errorsFormat,
			Unknown: &s.errorsUnknown,
		})
	}()

	slog.Info("cam-capture: session opened",
		"name", cfg.Name,
		"device", cfg.Device,
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
	)

	return s, nil
}

// onNewSample runs on the GStreamer streaming thread for every frame the
// appsink delivers. Extraction and normalization happen before the slot
// lock is ever taken; the lock is held only for the swap inside Write.
func (s *CamSession) onNewSample(sink *app.Sink) gst.FlowReturn {
	// Best-effort drop after Stop: the pipeline should have ceased
	// delivery, but a racing notification is tolerated, never an error.
	if SessionState(s.state.Load()) == StateStopped {
		atomic.AddUint64(&s.framesDropped, 1)
		return gst.FlowOK
	}

	raw, err := campipe.ExtractSample(sink)
	if err != nil {
		// Transient, signaled upstream: the pipeline's own recovery
		// policy decides whether the stream continues.
		atomic.AddUint64(&s.framesDropped, 1)
		slog.Warn("cam-capture: dropping frame", "error", err)
		return gst.FlowError
	}

	if err := s.ingest(raw); err != nil {
		// Per-frame failure: drop, log, keep the stream alive.
		slog.Warn("cam-capture: dropping frame",
			"error", err,
			"format", raw.Format,
			"width", raw.Width,
			"height", raw.Height,
		)
	}

	return gst.FlowOK
}

// ingest normalizes one raw sample and publishes it to the frame slot.
// Runs on the delivery thread; the slot lock is taken only inside Write,
// after normalization has produced the canonical buffer.
func (s *CamSession) ingest(raw campipe.RawSample) error {
	atomic.AddUint64(&s.bytesRead, uint64(len(raw.Data)))

	rgb, err := pixel.Normalize(raw.Data, raw.Width, raw.Height, pixel.ParseFormat(raw.Format))
	if err != nil {
		atomic.AddUint64(&s.framesDropped, 1)
		return err
	}

	seq := atomic.AddUint64(&s.framesReceived, 1)
	now := time.Now()
	s.lastFrameAt.Store(now.UnixNano())

	s.slot.Write(frameslot.Frame{
		Seq:       seq,
		Timestamp: now,
		Width:     raw.Width,
		Height:    raw.Height,
		Data:      rgb,
		TraceID:   uuid.New().String(),
	})

	slog.Debug("cam-capture: frame buffered",
		"seq", seq,
		"width", raw.Width,
		"height", raw.Height,
		"format", raw.Format,
	)

	return nil
}

// Provides returns the single logical name this session serves.
func (s *CamSession) Provides() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []string{s.name}
}

// SetName rebinds the logical name for subsequent Provides/Get matching.
func (s *CamSession) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// SetProperty is a documented no-op surface: camera sessions expose no
// runtime-tunable properties. Writes are logged, never fatal.
func (s *CamSession) SetProperty(key string, value interface{}) {
	slog.Warn("cam-capture: set_property unsupported for camera provider",
		"key", key,
	)
}

// Get returns the latest frame when name matches the session's logical
// name, nil otherwise or when no frame is pending. With invalidate=true
// the pending frame is consumed. Never blocks on pipeline activity.
func (s *CamSession) Get(name string, invalidate bool) *Frame {
	s.mu.Lock()
	match := name == s.name
	s.mu.Unlock()

	if !match {
		return nil
	}

	f, ok := s.slot.Read(invalidate)
	if !ok {
		return nil
	}

	return &Frame{
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
		Width:     f.Width,
		Height:    f.Height,
		Channels:  pixel.Channels,
		Data:      f.Data,
		TraceID:   f.TraceID,
	}
}

// State returns the session's current lifecycle state.
func (s *CamSession) State() SessionState {
	return SessionState(s.state.Load())
}

// Play requests frame delivery. Legal from Playing (harmless no-op at the
// pipeline) and Paused; a stopped session is never resurrected.
func (s *CamSession) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch SessionState(s.state.Load()) {
	case StateStopped:
		return fmt.Errorf("%w: cannot play a stopped session", ErrStateTransition)
	case StateUninitialized:
		return fmt.Errorf("%w: session not initialized", ErrStateTransition)
	}

	if err := s.elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("%w: pipeline rejected play: %v", ErrStateTransition, err)
	}

	s.state.Store(int32(StatePlaying))
	slog.Debug("cam-capture: session playing", "device", s.device)
	return nil
}

// Pause suspends frame delivery without releasing the device.
func (s *CamSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch SessionState(s.state.Load()) {
	case StateStopped:
		return fmt.Errorf("%w: cannot pause a stopped session", ErrStateTransition)
	case StateUninitialized:
		return fmt.Errorf("%w: session not initialized", ErrStateTransition)
	}

	if err := s.elements.Pipeline.SetState(gst.StatePaused); err != nil {
		return fmt.Errorf("%w: pipeline rejected pause: %v", ErrStateTransition, err)
	}

	s.state.Store(int32(StatePaused))
	slog.Debug("cam-capture: session paused", "device", s.device)
	return nil
}

// Stop halts delivery and releases the capture device. Terminal: after a
// successful Stop the only way back to frames is a new Open. Idempotent —
// stopping a stopped session returns nil.
//
// If the pipeline rejects the stop, the session state is left unchanged
// and the caller decides whether to retry.
func (s *CamSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if SessionState(s.state.Load()) == StateStopped {
		slog.Debug("cam-capture: session already stopped")
		return nil
	}

	if err := campipe.DestroyPipeline(s.elements); err != nil {
		return fmt.Errorf("%w: pipeline rejected stop: %v", ErrStateTransition, err)
	}

	s.state.Store(int32(StateStopped))

	// Stop the bus monitor and wait for it, bounded so a wedged pipeline
	// never wedges the caller.
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			slog.Debug("cam-capture: bus monitor stopped cleanly")
		case <-time.After(3 * time.Second):
			slog.Warn("cam-capture: stop timeout exceeded, bus monitor may still be running")
		}
	}

	slog.Info("cam-capture: session stopped",
		"name", s.name,
		"frames_received", atomic.LoadUint64(&s.framesReceived),
		"frames_dropped", atomic.LoadUint64(&s.framesDropped),
	)

	return nil
}

// Close tears the session down on discard. It issues Stop; a failing stop
// is logged and discard proceeds — teardown never escalates and never
// leaks the device.
func (s *CamSession) Close() error {
	if err := s.Stop(); err != nil {
		slog.Error("cam-capture: stop failed during teardown", "error", err)
	}
	return nil
}

// Stats returns a snapshot of session telemetry. Thread-safe; counters
// are read atomically.
func (s *CamSession) Stats() SessionStats {
	s.mu.Lock()
	name := s.name
	resolution := fmt.Sprintf("%dx%d", s.width, s.height)
	s.mu.Unlock()

	var lastFrameAt time.Time
	if nanos := s.lastFrameAt.Load(); nanos != 0 {
		lastFrameAt = time.Unix(0, nanos)
	}

	return SessionStats{
		FramesReceived: atomic.LoadUint64(&s.framesReceived),
		FramesDropped:  atomic.LoadUint64(&s.framesDropped),
		BytesRead:      atomic.LoadUint64(&s.bytesRead),
		LastFrameAt:    lastFrameAt,
		State:          SessionState(s.state.Load()),
		Name:           name,
		Resolution:     resolution,
		ErrorsDevice:   atomic.LoadUint64(&s.errorsDevice),
		ErrorsFormat:   atomic.LoadUint64(&s.errorsFormat),
		ErrorsUnknown:  atomic.LoadUint64(&s.errorsUnknown),
	}
}
