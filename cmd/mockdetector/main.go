// Command mockdetector is a stand-in detection service for local development.
// It assigns every connection a client id and answers each frame with a
// fixed list of boxes scaled to the frame size.
package main

import (
	"flag"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hazardcam/internal/codec"
	"hazardcam/internal/dto"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":8000", "Listen address")
	codecName := flag.String("codec", "json", "Wire codec: json, cbor or msgpack")
	labels := flag.String("labels", "person,fire", "Comma separated labels to report")
	flag.Parse()

	wire, err := codec.Lookup(*codecName)
	if err != nil {
		log.Fatalf("Invalid codec: %v", err)
	}

	var reported []string
	for _, label := range strings.Split(*labels, ",") {
		if label = strings.TrimSpace(label); label != "" {
			reported = append(reported, label)
		}
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, wire, reported)
	})

	log.Printf("🤖 Mock detector listening on %s/ws (%s)", *addr, wire.Name())
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func serve(w http.ResponseWriter, r *http.Request, wire codec.Codec, labels []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	handshake, err := wire.Marshal(dto.Handshake{ClientID: clientID})
	if err != nil {
		log.Printf("Failed to encode handshake: %v", err)
		return
	}
	if err := conn.WriteMessage(wire.MessageType(), handshake); err != nil {
		return
	}
	log.Printf("Client %s connected from %s", clientID, r.RemoteAddr)

	frames := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Client %s disconnected after %d frames: %v", clientID, frames, err)
			return
		}

		var frame dto.OutboundMessage
		if err := wire.Unmarshal(data, &frame); err != nil {
			log.Printf("Client %s sent an undecodable frame: %v", clientID, err)
			continue
		}
		frames++

		reply, err := wire.Marshal(fakeDetections(frame.Width, frame.Height, labels, frames))
		if err != nil {
			log.Printf("Failed to encode detections: %v", err)
			continue
		}
		if err := conn.WriteMessage(wire.MessageType(), reply); err != nil {
			return
		}
	}
}

// fakeDetections lays one box per label side by side across the frame.
// Every fourth frame reports nothing so that cool-downs can be observed.
func fakeDetections(width, height int, labels []string, n int) []dto.WireBox {
	boxes := []dto.WireBox{}
	if n%4 == 0 || len(labels) == 0 {
		return boxes
	}
	cell := float64(width) / float64(len(labels))
	for i, label := range labels {
		x := cell * float64(i)
		boxes = append(boxes, dto.NewWireBox(
			x+cell*0.1, float64(height)*0.2, x+cell*0.9, float64(height)*0.8,
			0.6+0.3*float64((n+i)%3)/2,
			label,
		))
	}
	return boxes
}
