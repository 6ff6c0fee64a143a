package dto

// OutboundMessage is the frame record sent to the detection service.
type OutboundMessage struct {
	Width  int    `json:"width" cbor:"width" msgpack:"width"`
	Height int    `json:"height" cbor:"height" msgpack:"height"`
	Image  []byte `json:"image" cbor:"image" msgpack:"image"`
}
