package capture

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"gocv.io/x/gocv"

	"hazardcam/internal/logger"
	"hazardcam/internal/model"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// maxJPEGSize bounds a reassembly buffer when a camera never sends a footer.
const maxJPEGSize = 4 << 20

// Reassembler rebuilds JPEG images that a network camera splits across UDP
// datagrams. A datagram starting with SOI opens a new image and one ending
// with EOI completes it.
type Reassembler struct {
	buffers map[string]*bytes.Buffer
}

func NewReassembler() *Reassembler {
	return &Reassembler{buffers: make(map[string]*bytes.Buffer)}
}

// Push adds a datagram from camera and returns a complete image when one ends.
func (r *Reassembler) Push(camera string, data []byte) ([]byte, bool) {
	imgBuffer, ok := r.buffers[camera]
	if !ok {
		imgBuffer = new(bytes.Buffer)
		r.buffers[camera] = imgBuffer
	}

	if bytes.HasPrefix(data, jpegHeader) {
		imgBuffer.Reset()
	} else if imgBuffer.Len() == 0 {
		// Mid-image datagram without a start; wait for the next SOI.
		return nil, false
	}
	imgBuffer.Write(data)

	if imgBuffer.Len() > maxJPEGSize {
		imgBuffer.Reset()
		return nil, false
	}

	if bytes.HasSuffix(data, jpegFooter) {
		fullFrame := make([]byte, imgBuffer.Len())
		copy(fullFrame, imgBuffer.Bytes())
		imgBuffer.Reset()
		return fullFrame, true
	}
	return nil, false
}

// UDPSource listens for JPEG datagrams from network cameras.
type UDPSource struct {
	port   int
	logger *logger.Logger
}

func NewUDPSource(port int, logger *logger.Logger) *UDPSource {
	return &UDPSource{port: port, logger: logger}
}

func (s *UDPSource) Run(ctx context.Context, sink FrameSink) error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: s.port})
	if err != nil {
		return fmt.Errorf("failed to listen on UDP port %d: %w", s.port, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	s.logger.Info("UDP camera intake started on port %d", s.port)

	buffer := make([]byte, 65535)
	reassembler := NewReassembler()
	start := time.Now()

	for {
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		image, complete := reassembler.Push(remoteAddr.IP.String(), buffer[:n])
		if !complete {
			continue
		}

		frame, err := s.decode(image, time.Since(start).Nanoseconds())
		if err != nil {
			s.logger.Warning("Dropping camera image from %s: %v", remoteAddr.IP, err)
			continue
		}
		sink.Submit(frame)
	}
}

func (s *UDPSource) decode(data []byte, capturedAt int64) (*model.Frame, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()
	return matToFrame(mat, capturedAt)
}
