package overlay

import (
	"fmt"
	"sync"
	"sync/atomic"

	"hazardcam/internal/model"
)

// State holds the most recent detection result for the drawing layer.
// Publish swaps a pointer to a private copy, so Current never returns a
// mix of two results.
type State struct {
	current atomic.Pointer[model.DetectionResult]
	version atomic.Uint64

	mu          sync.Mutex
	subscribers map[int]chan struct{}
	nextID      int
}

func NewState() *State {
	s := &State{subscribers: make(map[int]chan struct{})}
	s.current.Store(&model.DetectionResult{Boxes: []model.DetectionBox{}})
	return s
}

// Publish replaces the current result and wakes subscribers.
func (s *State) Publish(result model.DetectionResult) {
	boxes := make([]model.DetectionBox, len(result.Boxes))
	copy(boxes, result.Boxes)
	s.current.Store(&model.DetectionResult{Boxes: boxes, ArrivedAt: result.ArrivedAt})
	s.version.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		// Coalesce: a subscriber that has not caught up only needs one wake-up.
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Current returns the latest snapshot; the box slice is a fresh copy the
// caller may keep.
func (s *State) Current() model.DetectionResult {
	cur := s.current.Load()
	boxes := make([]model.DetectionBox, len(cur.Boxes))
	copy(boxes, cur.Boxes)
	return model.DetectionResult{Boxes: boxes, ArrivedAt: cur.ArrivedAt}
}

// Version counts publishes so far.
func (s *State) Version() uint64 {
	return s.version.Load()
}

// Subscribe returns a channel signalled after each publish and a cancel func.
func (s *State) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// BoxCaption is the text drawn above a box, e.g. "fire (93.1%)".
func BoxCaption(box model.DetectionBox) string {
	return fmt.Sprintf("%s (%.1f%%)", box.Label, box.Confidence*100)
}
