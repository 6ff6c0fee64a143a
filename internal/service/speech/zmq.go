package speech

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"
)

// AlertTopic prefixes every message the ZMQ sink publishes.
const AlertTopic = "alert"

// SpeechEvent is the CBOR body published for an external voice process.
type SpeechEvent struct {
	Text string `cbor:"text"`
	At   int64  `cbor:"at"`
}

// ZMQSpeaker publishes utterances on a PUB socket as [topic, cbor body].
type ZMQSpeaker struct {
	mu     sync.Mutex
	socket *zmq4.Socket
}

func NewZMQSpeaker(endpoint string) (*ZMQSpeaker, error) {
	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create zmq socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Bind(endpoint); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("failed to bind %s: %w", endpoint, err)
	}
	return &ZMQSpeaker{socket: socket}, nil
}

func (s *ZMQSpeaker) Speak(ctx context.Context, text string) error {
	body, err := cbor.Marshal(SpeechEvent{Text: text, At: time.Now().UnixMilli()})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.socket.SendMessageDontwait(AlertTopic, body)
	return err
}

func (s *ZMQSpeaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.socket.Close()
}
