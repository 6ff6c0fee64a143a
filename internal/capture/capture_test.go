package capture

import (
	"bytes"
	"testing"

	"gocv.io/x/gocv"

	"hazardcam/internal/model"
)

func TestReassembler_SingleDatagram(t *testing.T) {
	r := NewReassembler()
	data := []byte{0xFF, 0xD8, 1, 2, 3, 0xFF, 0xD9}

	img, ok := r.Push("10.0.0.2", data)
	if !ok || !bytes.Equal(img, data) {
		t.Fatalf("Expected complete image, got %v %v", img, ok)
	}
}

func TestReassembler_SplitAcrossDatagramsPerCamera(t *testing.T) {
	r := NewReassembler()

	if _, ok := r.Push("a", []byte{0xFF, 0xD8, 1}); ok {
		t.Fatal("Image should not be complete yet")
	}
	if _, ok := r.Push("b", []byte{0xFF, 0xD8, 9}); ok {
		t.Fatal("Image should not be complete yet")
	}
	img, ok := r.Push("a", []byte{2, 0xFF, 0xD9})
	if !ok || !bytes.Equal(img, []byte{0xFF, 0xD8, 1, 2, 0xFF, 0xD9}) {
		t.Errorf("Unexpected image for camera a: %v", img)
	}
	img, ok = r.Push("b", []byte{0xFF, 0xD9})
	if !ok || !bytes.Equal(img, []byte{0xFF, 0xD8, 9, 0xFF, 0xD9}) {
		t.Errorf("Unexpected image for camera b: %v", img)
	}
}

func TestReassembler_IgnoresTailWithoutStart(t *testing.T) {
	r := NewReassembler()
	if _, ok := r.Push("a", []byte{1, 2, 0xFF, 0xD9}); ok {
		t.Error("A tail without SOI must not produce an image")
	}
}

func TestReassembler_NewStartDiscardsPartial(t *testing.T) {
	r := NewReassembler()
	r.Push("a", []byte{0xFF, 0xD8, 1})
	img, ok := r.Push("a", []byte{0xFF, 0xD8, 7, 0xFF, 0xD9})
	if !ok || !bytes.Equal(img, []byte{0xFF, 0xD8, 7, 0xFF, 0xD9}) {
		t.Errorf("Expected only the newest image, got %v", img)
	}
}

func testFrame(w, h int) *model.Frame {
	buf := make([]byte, w*h*3)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	return &model.Frame{Width: w, Height: h, PixelBuffer: buf, CapturedAtNanos: 1}
}

func TestJPEGEncoder_ProducesDecodableImage(t *testing.T) {
	payload, err := JPEGEncoder{Quality: 90}.Encode(testFrame(64, 48))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.HasPrefix(payload, jpegHeader) {
		t.Fatal("Payload is not a JPEG")
	}

	mat, err := gocv.IMDecode(payload, gocv.IMReadColor)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	defer mat.Close()
	if mat.Cols() != 64 || mat.Rows() != 48 {
		t.Errorf("Expected 64x48, got %dx%d", mat.Cols(), mat.Rows())
	}
}

func TestJPEGEncoder_RejectsShortBuffer(t *testing.T) {
	frame := &model.Frame{Width: 10, Height: 10, PixelBuffer: make([]byte, 10)}
	if _, err := (JPEGEncoder{}).Encode(frame); err == nil {
		t.Error("Expected error for a buffer that does not match the geometry")
	}
}

func TestMatToFrame_RoundTrip(t *testing.T) {
	src := testFrame(8, 4)
	mat, err := FrameToMat(src)
	if err != nil {
		t.Fatalf("FrameToMat failed: %v", err)
	}
	defer mat.Close()

	frame, err := matToFrame(mat, 42)
	if err != nil {
		t.Fatalf("matToFrame failed: %v", err)
	}
	if frame.Width != 8 || frame.Height != 4 || frame.CapturedAtNanos != 42 {
		t.Errorf("Unexpected frame %dx%d@%d", frame.Width, frame.Height, frame.CapturedAtNanos)
	}
	if !bytes.Equal(frame.PixelBuffer, src.PixelBuffer) {
		t.Error("Pixel buffer changed in the round trip")
	}
}
