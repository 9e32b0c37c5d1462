package stream

import (
	"encoding"
	"fmt"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Item errors.
var (
	ErrPongReceived      = errors.New("pong received")
	ErrCloseFrame        = errors.New("close frame received")
	ErrBinaryUnsupported = errors.New("binary frames not supported by message type")
)

// FrameKind is the kind of an inbound websocket frame.
type FrameKind int

const (
	FrameText FrameKind = iota
	FrameBinary
	FramePing
	FramePong
	FrameClose
	FrameRaw
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	case FrameRaw:
		return "raw"
	default:
		return fmt.Sprintf("frame(%d)", int(k))
	}
}

// Frame is one inbound frame. CloseCode and CloseText are set for FrameClose.
type Frame struct {
	Kind      FrameKind
	Data      []byte
	CloseCode int
	CloseText string
}

// Item is one element of a stream: a decoded message or an error.
type Item[M any] struct {
	Msg M
	Err error
}

// Classify maps a frame to at most one item. Control and raw frames produce
// nothing; everything else produces exactly one item.
func Classify[M any](f Frame) (Item[M], bool) {
	switch f.Kind {
	case FrameText:
		if string(f.Data) == "pong" {
			return Item[M]{Err: errors.WithStack(ErrPongReceived)}, true
		}
		var msg M
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			return Item[M]{Err: smartapi.WithClass(errors.Wrap(err, "decode text frame"), smartapi.ErrDecode)}, true
		}
		return Item[M]{Msg: msg}, true

	case FrameBinary:
		var msg M
		u, ok := any(&msg).(encoding.BinaryUnmarshaler)
		if !ok {
			return Item[M]{Err: smartapi.WithClass(errors.Wrapf(ErrBinaryUnsupported, "%T", msg), smartapi.ErrDecode)}, true
		}
		if err := u.UnmarshalBinary(f.Data); err != nil {
			return Item[M]{Err: smartapi.WithClass(errors.Wrap(err, "decode binary frame"), smartapi.ErrDecode)}, true
		}
		return Item[M]{Msg: msg}, true

	case FrameClose:
		return Item[M]{Err: errors.Wrapf(ErrCloseFrame, "code %d %q", f.CloseCode, f.CloseText)}, true

	default:
		// ping, pong, raw
		return Item[M]{}, false
	}
}
