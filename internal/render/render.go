// Package render draws the detection overlay on top of camera frames.
package render

import (
	"fmt"
	"sync/atomic"

	"gocv.io/x/gocv"

	"hazardcam/internal/capture"
	"hazardcam/internal/model"
	"hazardcam/internal/service/overlay"
	"hazardcam/internal/service/state"
)

// Annotate draws every box of result on a copy of frame and returns a JPEG.
// Hazard boxes are red, the rest lime; captions follow the text size preference.
func Annotate(frame *model.Frame, result model.DetectionResult, hazards state.HazardSet, size state.TextSize) ([]byte, error) {
	src, err := capture.FrameToMat(frame)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mat := src.Clone()
	defer mat.Close()

	scale := overlay.FontScale(size)
	thickness := overlay.FontThickness(size)

	for _, box := range result.Boxes {
		rect, ok := overlay.PixelRect(box, frame.Width, frame.Height)
		if !ok {
			continue
		}
		c := overlay.BoxColor(box, hazards)

		if err := gocv.Rectangle(&mat, rect, c, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %w", err)
		}

		caption := overlay.BoxCaption(box)
		textSize := gocv.GetTextSize(caption, gocv.FontHersheySimplex, scale, thickness)
		pt := overlay.CaptionOrigin(rect, textSize.Y)
		if err := gocv.PutText(&mat, caption, pt, gocv.FontHersheySimplex, scale, c, thickness); err != nil {
			return nil, fmt.Errorf("failed to draw text: %w", err)
		}
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	finalImage := make([]byte, buf.Len())
	copy(finalImage, buf.GetBytes())
	return finalImage, nil
}

// Preview keeps the most recent captured frame for on-demand rendering.
type Preview struct {
	latest atomic.Pointer[model.Frame]
}

// Submit implements capture.FrameSink.
func (p *Preview) Submit(frame *model.Frame) bool {
	if !frame.Valid() {
		return false
	}
	p.latest.Store(frame)
	return true
}

// Latest returns the last frame, or nil before the first one.
func (p *Preview) Latest() *model.Frame {
	return p.latest.Load()
}
