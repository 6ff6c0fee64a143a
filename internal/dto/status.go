package dto

// Status is the body of GET /api/status.
type Status struct {
	Connection     string   `json:"connection"`
	ClientID       string   `json:"client_id,omitempty"`
	Endpoint       string   `json:"endpoint"`
	Codec          string   `json:"codec"`
	FramesSeen     uint64   `json:"frames_seen"`
	FramesAdmitted uint64   `json:"frames_admitted"`
	HandoffDrops   uint64   `json:"handoff_drops"`
	MessagesSent   uint64   `json:"messages_sent"`
	SendDrops      uint64   `json:"send_drops"`
	DecodeErrors   uint64   `json:"decode_errors"`
	Reconnects     uint64   `json:"reconnects"`
	ActiveHazards  []string `json:"active_hazards"`
	Viewers        int      `json:"viewers"`
}
