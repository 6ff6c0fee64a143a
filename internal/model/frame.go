package model

// Frame is one captured video frame. It is never mutated after capture.
type Frame struct {
	Width           int
	Height          int
	PixelBuffer     []byte // packed BGR, Width*Height*3 bytes for camera sources
	CapturedAtNanos int64  // monotonic, relative to the source start
}

// Valid reports whether the frame has a non-empty geometry and buffer.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.PixelBuffer) > 0
}
