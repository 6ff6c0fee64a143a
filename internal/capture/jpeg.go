package capture

import (
	"fmt"

	"gocv.io/x/gocv"

	"hazardcam/internal/model"
)

// JPEGEncoder compresses frames before they go on the wire.
type JPEGEncoder struct {
	Quality int
}

func (e JPEGEncoder) Encode(frame *model.Frame) ([]byte, error) {
	mat, err := FrameToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	quality := e.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	defer buf.Close()

	payload := make([]byte, buf.Len())
	copy(payload, buf.GetBytes())
	return payload, nil
}
