// Package codec serializes frame records for the detection service and
// classifies the messages it sends back.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrUnknownCodec = errors.New("unknown codec")
	ErrMalformed    = errors.New("malformed message")
)

// Kind is the top-level shape of an encoded message.
type Kind int

const (
	KindUnknown Kind = iota
	KindObject
	KindArray
)

// Codec encodes outbound records and decodes inbound ones.
type Codec interface {
	Name() string
	// MessageType is the websocket frame type the codec's output travels in.
	MessageType() int
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Peek inspects the first byte(s) of data without decoding it.
	Peek(data []byte) Kind
}

// Lookup returns the codec registered under name (case-insensitive).
func Lookup(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON{}, nil
	case "cbor":
		return CBOR{}, nil
	case "msgpack":
		return MsgPack{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

type JSON struct{}

func (JSON) Name() string                       { return "json" }
func (JSON) MessageType() int                   { return websocket.TextMessage }
func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Peek(data []byte) Kind {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return KindUnknown
	}
	switch trimmed[0] {
	case '{':
		return KindObject
	case '[':
		return KindArray
	}
	return KindUnknown
}

type CBOR struct{}

func (CBOR) Name() string                       { return "cbor" }
func (CBOR) MessageType() int                   { return websocket.BinaryMessage }
func (CBOR) Marshal(v any) ([]byte, error)      { return cbor.Marshal(v) }
func (CBOR) Unmarshal(data []byte, v any) error { return cbor.Unmarshal(data, v) }

func (CBOR) Peek(data []byte) Kind {
	if len(data) == 0 {
		return KindUnknown
	}
	// Major type lives in the top three bits: 4 is array, 5 is map.
	switch data[0] >> 5 {
	case 4:
		return KindArray
	case 5:
		return KindObject
	}
	return KindUnknown
}

type MsgPack struct{}

func (MsgPack) Name() string                       { return "msgpack" }
func (MsgPack) MessageType() int                   { return websocket.BinaryMessage }
func (MsgPack) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (MsgPack) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

func (MsgPack) Peek(data []byte) Kind {
	if len(data) == 0 {
		return KindUnknown
	}
	b := data[0]
	switch {
	case b >= 0x80 && b <= 0x8f, b == 0xde, b == 0xdf:
		return KindObject
	case b >= 0x90 && b <= 0x9f, b == 0xdc, b == 0xdd:
		return KindArray
	}
	return KindUnknown
}
