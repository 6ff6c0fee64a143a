package model

import "time"

// DetectionBox is one detected object in frame pixel space.
type DetectionBox struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Width returns the horizontal extent of the box.
func (b DetectionBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b DetectionBox) Height() float64 { return b.Y2 - b.Y1 }

// DetectionResult is one complete answer from the detection service.
// A newer result replaces an older one wholesale.
type DetectionResult struct {
	Boxes     []DetectionBox `json:"boxes"`
	ArrivedAt time.Time      `json:"arrived_at"`
}

// Labels returns the label of every box in order, duplicates included.
func (r DetectionResult) Labels() []string {
	labels := make([]string, 0, len(r.Boxes))
	for _, box := range r.Boxes {
		labels = append(labels, box.Label)
	}
	return labels
}
