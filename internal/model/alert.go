package model

import "time"

// Alert represents a spoken hazard warning that was emitted.
type Alert struct {
	ID         int64     `json:"id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	ClientID   string    `json:"client_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session represents one connection lifetime with the detection service.
type Session struct {
	ID             int64      `json:"id"`
	ClientID       string     `json:"client_id"`
	Endpoint       string     `json:"endpoint"`
	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// Settings is the persisted user preference record.
type Settings struct {
	HazardLabels []string `json:"hazards"`
	Mute         bool     `json:"mute"`
	TextSize     string   `json:"size"`
}
