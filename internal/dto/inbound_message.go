package dto

// Handshake is sent once by the detection service right after connecting.
type Handshake struct {
	ClientID string `json:"client_id" cbor:"client_id" msgpack:"client_id"`
}

// WireBox is one element of a detection-result message. Numbers are pointers
// so that an explicit null is told apart from zero.
type WireBox struct {
	Box        []*float64 `json:"box" cbor:"box" msgpack:"box"` // x1, y1, x2, y2
	Confidence *float64   `json:"confidence" cbor:"confidence" msgpack:"confidence"`
	Label      string     `json:"label" cbor:"label" msgpack:"label"`
}

// NewWireBox builds a fully populated box.
func NewWireBox(x1, y1, x2, y2, confidence float64, label string) WireBox {
	return WireBox{
		Box:        []*float64{&x1, &y1, &x2, &y2},
		Confidence: &confidence,
		Label:      label,
	}
}
