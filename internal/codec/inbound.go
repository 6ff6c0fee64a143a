package codec

import (
	"fmt"

	"hazardcam/internal/dto"
	"hazardcam/internal/model"
)

// Inbound is a classified message from the detection service. Exactly one
// of Handshake or Boxes is meaningful; IsHandshake tells which.
type Inbound struct {
	Handshake *dto.Handshake
	Boxes     []model.DetectionBox
}

// IsHandshake reports whether the message carried a client identifier.
func (in Inbound) IsHandshake() bool {
	return in.Handshake != nil
}

// DecodeInbound classifies and decodes one message. Any error means the whole
// message must be discarded; boxes are never returned partially.
func DecodeInbound(c Codec, data []byte) (Inbound, error) {
	switch c.Peek(data) {
	case KindObject:
		var hs dto.Handshake
		if err := c.Unmarshal(data, &hs); err != nil {
			return Inbound{}, fmt.Errorf("%w: handshake: %v", ErrMalformed, err)
		}
		if hs.ClientID == "" {
			return Inbound{}, fmt.Errorf("%w: object without client_id", ErrMalformed)
		}
		return Inbound{Handshake: &hs}, nil

	case KindArray:
		var wire []dto.WireBox
		if err := c.Unmarshal(data, &wire); err != nil {
			return Inbound{}, fmt.Errorf("%w: detections: %v", ErrMalformed, err)
		}
		boxes := make([]model.DetectionBox, 0, len(wire))
		for i, wb := range wire {
			box, err := toDetectionBox(wb)
			if err != nil {
				return Inbound{}, fmt.Errorf("%w: box %d: %v", ErrMalformed, i, err)
			}
			boxes = append(boxes, box)
		}
		return Inbound{Boxes: boxes}, nil
	}

	return Inbound{}, fmt.Errorf("%w: neither handshake nor detection list", ErrMalformed)
}

func toDetectionBox(wb dto.WireBox) (model.DetectionBox, error) {
	if len(wb.Box) != 4 {
		return model.DetectionBox{}, fmt.Errorf("expected 4 coordinates, got %d", len(wb.Box))
	}
	for i, v := range wb.Box {
		if v == nil {
			return model.DetectionBox{}, fmt.Errorf("coordinate %d is null", i)
		}
	}
	if wb.Confidence == nil {
		return model.DetectionBox{}, fmt.Errorf("confidence is missing")
	}
	confidence := *wb.Confidence
	if !(confidence >= 0 && confidence <= 1) {
		return model.DetectionBox{}, fmt.Errorf("confidence %v outside [0,1]", confidence)
	}
	return model.DetectionBox{
		X1:         *wb.Box[0],
		Y1:         *wb.Box[1],
		X2:         *wb.Box[2],
		Y2:         *wb.Box[3],
		Label:      wb.Label,
		Confidence: confidence,
	}, nil
}
