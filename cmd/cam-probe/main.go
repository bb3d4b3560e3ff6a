// cam-probe opens a camera session and polls it the way a render loop
// would: one Get per tick with invalidate-on-read. Frames can optionally
// be dumped to disk for inspection.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	camcapture "github.com/e7canasta/orion-care-sensor/modules/cam-capture"
)

const version = "v0.1.0"

func main() {
	device := flag.String("device", "", "Capture device path (empty = auto video source)")
	name := flag.String("name", "webcam", "Logical input name served by this provider")
	width := flag.Int("width", 640, "Target frame width")
	height := flag.Int("height", 480, "Target frame height")
	tick := flag.Duration("tick", 33*time.Millisecond, "Polling cadence (render tick)")
	outputDir := flag.String("output", "", "Directory to save polled frames (optional)")
	outputFormat := flag.String("format", "png", "Output format: png, jpeg")
	jpegQuality := flag.Int("jpeg-quality", 90, "JPEG quality (1-100, only for jpeg format)")
	maxFrames := flag.Int("max-frames", 0, "Maximum frames to poll (0 = unlimited)")
	statsInterval := flag.Int("stats-interval", 10, "Seconds between stats reports")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cam-probe %s\n", version)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if *outputFormat != "png" && *outputFormat != "jpeg" {
		log.Fatalf("Invalid output format: %s (must be png or jpeg)", *outputFormat)
	}

	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		slog.Info("Frame saving enabled",
			"directory", *outputDir,
			"format", *outputFormat,
		)
	}

	fmt.Printf("cam-probe %s\n", version)
	fmt.Printf("  Device:     %s\n", sourceLabel(*device))
	fmt.Printf("  Name:       %s\n", *name)
	fmt.Printf("  Resolution: %dx%d\n", *width, *height)
	fmt.Printf("  Tick:       %s\n", *tick)
	fmt.Printf("Press Ctrl+C to stop gracefully\n\n")

	session, err := camcapture.Open(camcapture.CamConfig{
		Device: *device,
		Name:   *name,
		Width:  *width,
		Height: *height,
	})
	if err != nil {
		log.Fatalf("Failed to open camera session: %v", err)
	}
	defer session.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*tick)
	defer ticker.Stop()

	statsTicker := time.NewTicker(time.Duration(*statsInterval) * time.Second)
	defer statsTicker.Stop()

	startTime := time.Now()
	polled := 0
	saved := 0

	for {
		select {
		case <-sigChan:
			fmt.Printf("\nReceived interrupt signal, shutting down...\n")
			printFinalStats(session, startTime, polled, saved)
			return

		case <-statsTicker.C:
			stats := session.Stats()
			fmt.Printf("[stats] state=%s received=%d dropped=%d polled=%d bytes=%.2fMB errors(dev/fmt/unk)=%d/%d/%d\n",
				stats.State,
				stats.FramesReceived,
				stats.FramesDropped,
				polled,
				float64(stats.BytesRead)/1024/1024,
				stats.ErrorsDevice,
				stats.ErrorsFormat,
				stats.ErrorsUnknown,
			)

		case <-ticker.C:
			frame := session.Get(*name, true)
			if frame == nil {
				continue // No new frame this tick
			}
			polled++

			fmt.Printf("[%s] Frame #%-6d | Seq: %-8d | %dx%d | %6.1f KB\n",
				time.Now().Format("15:04:05"),
				polled,
				frame.Seq,
				frame.Width,
				frame.Height,
				float64(len(frame.Data))/1024,
			)

			if *outputDir != "" {
				if err := saveFrame(*outputDir, frame, *outputFormat, *jpegQuality); err != nil {
					slog.Error("Failed to save frame", "error", err, "seq", frame.Seq)
				} else {
					saved++
				}
			}

			if *maxFrames > 0 && polled >= *maxFrames {
				fmt.Printf("\nReached maximum frames (%d), stopping...\n", *maxFrames)
				printFinalStats(session, startTime, polled, saved)
				return
			}
		}
	}
}

func sourceLabel(device string) string {
	if device == "" {
		return "(auto video source)"
	}
	return device
}

func printFinalStats(session *camcapture.CamSession, startTime time.Time, polled, saved int) {
	if err := session.Stop(); err != nil {
		slog.Error("Error stopping session", "error", err)
	}

	stats := session.Stats()
	fmt.Printf("\nFinal statistics:\n")
	fmt.Printf("  Uptime:          %s\n", time.Since(startTime).Round(time.Second))
	fmt.Printf("  Frames received: %d\n", stats.FramesReceived)
	fmt.Printf("  Frames dropped:  %d\n", stats.FramesDropped)
	fmt.Printf("  Frames polled:   %d\n", polled)
	fmt.Printf("  Frames saved:    %d\n", saved)
	fmt.Printf("  Bytes read:      %.2f MB\n", float64(stats.BytesRead)/1024/1024)
}

// saveFrame saves a canonical RGB frame to disk as PNG or JPEG.
func saveFrame(outputDir string, frame *camcapture.Frame, format string, jpegQuality int) error {
	filename := fmt.Sprintf("frame_%06d_%s.%s",
		frame.Seq, frame.Timestamp.Format("20060102_150405.000"), format)
	path := filepath.Join(outputDir, filename)

	// Convert RGB to RGBA (add alpha = 255) for the stdlib encoders
	img := &image.RGBA{
		Pix:    make([]uint8, frame.Width*frame.Height*4),
		Stride: frame.Width * 4,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
	for i := 0; i < frame.Width*frame.Height; i++ {
		img.Pix[i*4+0] = frame.Data[i*3+0]
		img.Pix[i*4+1] = frame.Data[i*3+1]
		img.Pix[i*4+2] = frame.Data[i*3+2]
		img.Pix[i*4+3] = 255
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	switch format {
	case "png":
		if err := png.Encode(file, img); err != nil {
			return fmt.Errorf("failed to encode PNG: %w", err)
		}
	case "jpeg":
		if err := jpeg.Encode(file, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("failed to encode JPEG: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	return nil
}
