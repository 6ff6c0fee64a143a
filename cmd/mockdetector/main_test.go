package main

import (
	"testing"

	"hazardcam/internal/codec"
)

func TestFakeDetections(t *testing.T) {
	boxes := fakeDetections(640, 480, []string{"person", "fire"}, 1)
	if len(boxes) != 2 {
		t.Fatalf("Expected 2 boxes, got %d", len(boxes))
	}
	for _, b := range boxes {
		if len(b.Box) != 4 || b.Confidence == nil {
			t.Fatalf("Incomplete box: %+v", b)
		}
		x1, x2, y2 := *b.Box[0], *b.Box[2], *b.Box[3]
		if x1 >= x2 || x2 > 640 || y2 > 480 {
			t.Errorf("Box out of frame: %v %v %v", x1, x2, y2)
		}
		if c := *b.Confidence; c < 0 || c > 1 {
			t.Errorf("Confidence out of range: %v", c)
		}
	}

	if empty := fakeDetections(640, 480, []string{"fire"}, 4); len(empty) != 0 {
		t.Errorf("Expected an empty result every fourth frame, got %v", empty)
	}
}

func TestFakeDetections_DecodeAsResult(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON{}, codec.CBOR{}, codec.MsgPack{}} {
		data, err := c.Marshal(fakeDetections(100, 100, []string{"fire"}, 1))
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", c.Name(), err)
		}
		in, err := codec.DecodeInbound(c, data)
		if err != nil {
			t.Fatalf("%s: decode failed: %v", c.Name(), err)
		}
		if in.IsHandshake() || len(in.Boxes) != 1 || in.Boxes[0].Label != "fire" {
			t.Errorf("%s: unexpected inbound %+v", c.Name(), in)
		}
	}
}
