// Package capture produces frames from a camera and feeds them to the sampler.
package capture

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"hazardcam/internal/config"
	"hazardcam/internal/logger"
	"hazardcam/internal/model"
)

// FrameSink receives every captured frame. Submit must not block.
type FrameSink interface {
	Submit(frame *model.Frame) bool
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(*model.Frame) bool

func (f FrameSinkFunc) Submit(frame *model.Frame) bool { return f(frame) }

// Source runs the capture loop on the calling goroutine until ctx is done
// or the source is exhausted.
type Source interface {
	Run(ctx context.Context, sink FrameSink) error
}

// NewSource picks the UDP intake when a camera port is configured and the
// local device or stream otherwise.
func NewSource(cfg *config.Config, logger *logger.Logger) Source {
	if cfg.CameraUDPPort > 0 {
		return NewUDPSource(cfg.CameraUDPPort, logger)
	}
	return NewDeviceSource(cfg.CameraSource, logger)
}

// matToFrame copies a BGR Mat into a Frame.
func matToFrame(mat gocv.Mat, capturedAt int64) (*model.Frame, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("unsupported image type %v", mat.Type())
	}
	return &model.Frame{
		Width:           mat.Cols(),
		Height:          mat.Rows(),
		PixelBuffer:     mat.ToBytes(),
		CapturedAtNanos: capturedAt,
	}, nil
}

// FrameToMat wraps a frame's BGR buffer in a new Mat the caller must close.
func FrameToMat(frame *model.Frame) (gocv.Mat, error) {
	if !frame.Valid() {
		return gocv.NewMat(), fmt.Errorf("invalid frame")
	}
	if len(frame.PixelBuffer) != frame.Width*frame.Height*3 {
		return gocv.NewMat(), fmt.Errorf("frame buffer has %d bytes, want %d", len(frame.PixelBuffer), frame.Width*frame.Height*3)
	}
	return gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.PixelBuffer)
}
