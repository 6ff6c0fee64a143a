package capture

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gocv.io/x/gocv"

	"hazardcam/internal/logger"
)

// maxReadFailures ends a live capture after this many consecutive empty reads.
const maxReadFailures = 50

// DeviceSource reads a local camera index, a video file or a stream URL.
type DeviceSource struct {
	source string
	logger *logger.Logger
}

func NewDeviceSource(source string, logger *logger.Logger) *DeviceSource {
	return &DeviceSource{source: source, logger: logger}
}

func (s *DeviceSource) open() (*gocv.VideoCapture, error) {
	if index, err := strconv.Atoi(s.source); err == nil {
		return gocv.OpenVideoCapture(index)
	}
	return gocv.OpenVideoCapture(s.source)
}

func (s *DeviceSource) Run(ctx context.Context, sink FrameSink) error {
	webcam, err := s.open()
	if err != nil {
		return fmt.Errorf("failed to open camera %s: %w", s.source, err)
	}
	defer webcam.Close()
	webcam.Set(gocv.VideoCaptureBufferSize, 1)

	s.logger.Info("📷 Capturing from %s", s.source)

	img := gocv.NewMat()
	defer img.Close()

	start := time.Now()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if ok := webcam.Read(&img); !ok || img.Empty() {
			failures++
			if failures >= maxReadFailures {
				return fmt.Errorf("camera %s stopped delivering frames", s.source)
			}
			time.Sleep(20 * time.Millisecond)
			continue
		}
		failures = 0

		// time.Since uses the monotonic clock reading taken at start.
		frame, err := matToFrame(img, time.Since(start).Nanoseconds())
		if err != nil {
			s.logger.Warning("Skipping camera frame: %v", err)
			continue
		}
		sink.Submit(frame)
	}
}
