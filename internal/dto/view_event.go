package dto

import "hazardcam/internal/model"

// ViewEvent is pushed to browser viewers over /api/view.
type ViewEvent struct {
	Type    string                 `json:"type"` // "overlay" or "alert"
	Overlay *model.DetectionResult `json:"overlay,omitempty"`
	Label   string                 `json:"label,omitempty"`
}
