// Package sampler admits camera frames at a bounded rate and hands the
// admitted ones to the connection manager.
//
// Drop frames, never queue: the capture goroutine must not wait on the
// network, so the handoff channel is small and the oldest pending record is
// discarded when it is full.
package sampler

import (
	"sync"
	"sync/atomic"
	"time"

	"hazardcam/internal/dto"
	"hazardcam/internal/logger"
	"hazardcam/internal/model"
)

// PayloadEncoder turns a frame's pixels into the bytes put on the wire.
type PayloadEncoder interface {
	Encode(frame *model.Frame) ([]byte, error)
}

// RawEncoder sends the pixel buffer as-is.
type RawEncoder struct{}

func (RawEncoder) Encode(frame *model.Frame) ([]byte, error) {
	payload := make([]byte, len(frame.PixelBuffer))
	copy(payload, frame.PixelBuffer)
	return payload, nil
}

// Stats are cumulative counters since creation.
type Stats struct {
	Seen         uint64
	Admitted     uint64
	Rejected     uint64
	HandoffDrops uint64
	EncodeErrors uint64
}

type Sampler struct {
	minInterval int64
	encoder     PayloadEncoder
	out         chan dto.OutboundMessage
	logger      *logger.Logger

	mu           sync.Mutex
	lastAdmitted int64
	hasLast      bool

	seen         atomic.Uint64
	admitted     atomic.Uint64
	rejected     atomic.Uint64
	handoffDrops atomic.Uint64
	encodeErrors atomic.Uint64
}

// NewSampler creates a sampler admitting at most one frame per minInterval.
// queue is the handoff capacity towards the connection manager (minimum 1).
func NewSampler(minInterval time.Duration, queue int, encoder PayloadEncoder, logger *logger.Logger) *Sampler {
	if queue < 1 {
		queue = 1
	}
	if encoder == nil {
		encoder = RawEncoder{}
	}
	return &Sampler{
		minInterval: minInterval.Nanoseconds(),
		encoder:     encoder,
		out:         make(chan dto.OutboundMessage, queue),
		logger:      logger,
	}
}

// Outbound is read by the connection manager, in admission order.
func (s *Sampler) Outbound() <-chan dto.OutboundMessage {
	return s.out
}

// Submit admits frame if at least minInterval has passed since the last
// admitted frame's capture time. Invalid frames are never admitted.
func (s *Sampler) Submit(frame *model.Frame) bool {
	s.seen.Add(1)

	if !frame.Valid() {
		s.rejected.Add(1)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasLast && frame.CapturedAtNanos-s.lastAdmitted < s.minInterval {
		s.rejected.Add(1)
		return false
	}

	payload, err := s.encoder.Encode(frame)
	if err != nil {
		s.encodeErrors.Add(1)
		s.rejected.Add(1)
		s.logger.Warning("Failed to encode frame %dx%d: %v", frame.Width, frame.Height, err)
		return false
	}

	s.lastAdmitted = frame.CapturedAtNanos
	s.hasLast = true
	s.admitted.Add(1)

	s.handoff(dto.OutboundMessage{Width: frame.Width, Height: frame.Height, Image: payload})
	return true
}

// handoff never blocks. Submit is serialized by mu, so there is a single
// writer and the drop-oldest loop terminates.
func (s *Sampler) handoff(msg dto.OutboundMessage) {
	for {
		select {
		case s.out <- msg:
			return
		default:
		}
		select {
		case <-s.out:
			s.handoffDrops.Add(1)
		default:
		}
	}
}

func (s *Sampler) Stats() Stats {
	return Stats{
		Seen:         s.seen.Load(),
		Admitted:     s.admitted.Load(),
		Rejected:     s.rejected.Load(),
		HandoffDrops: s.handoffDrops.Load(),
		EncodeErrors: s.encodeErrors.Load(),
	}
}
