package encoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// FrameType is the first byte of every frame on the wire.
type FrameType byte

const (
	TypeMessage  FrameType = 0 // 4-byte length, then text
	TypeUsername FrameType = 1 // 1-byte length, then text
	TypeInit     FrameType = 2 // type byte only
	TypePeerList FrameType = 3 // type byte only
)

// DefaultMaxMessage bounds the declared length of a Message frame.
const DefaultMaxMessage uint32 = 1 << 20

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrProtocol         = errors.New("protocol error")
	ErrPayloadTooLarge  = fmt.Errorf("%w: payload too large", ErrProtocol)
)

func (t FrameType) String() string {
	switch t {
	case TypeMessage:
		return "Message"
	case TypeUsername:
		return "Username"
	case TypeInit:
		return "Init"
	case TypePeerList:
		return "PeerList"
	}
	return fmt.Sprintf("FrameType(%d)", byte(t))
}

// Frame is one length-delimited unit of the wire protocol.
type Frame struct {
	Type    FrameType
	Payload []byte
}

func NewMessage(text string) Frame  { return Frame{Type: TypeMessage, Payload: []byte(text)} }
func NewUsername(name string) Frame { return Frame{Type: TypeUsername, Payload: []byte(name)} }

// Text returns the payload as a string.
func (f Frame) Text() string {
	return string(f.Payload)
}

// Encode serialises f as [type][length prefix][payload].
// Init and PeerList frames carry the type byte only; a payload set on them is rejected.
func Encode(f Frame) ([]byte, error) {
	switch f.Type {
	case TypeMessage:
		if uint64(len(f.Payload)) > math.MaxUint32 {
			return nil, ErrPayloadTooLarge
		}
		buf := make([]byte, 1+4+len(f.Payload))
		buf[0] = byte(f.Type)
		binary.BigEndian.PutUint32(buf[1:5], uint32(len(f.Payload)))
		copy(buf[5:], f.Payload)
		return buf, nil
	case TypeUsername:
		if len(f.Payload) > math.MaxUint8 {
			return nil, ErrPayloadTooLarge
		}
		buf := make([]byte, 1+1+len(f.Payload))
		buf[0] = byte(f.Type)
		buf[1] = byte(len(f.Payload))
		copy(buf[2:], f.Payload)
		return buf, nil
	case TypeInit, TypePeerList:
		if len(f.Payload) != 0 {
			return nil, fmt.Errorf("%w: %s frame has no payload", ErrProtocol, f.Type)
		}
		return []byte{byte(f.Type)}, nil
	}
	return nil, fmt.Errorf("%w: unknown frame type %d", ErrProtocol, byte(f.Type))
}

// Decode reads exactly one frame from r.
//
// Short reads are retried until the declared length is satisfied. The payload
// buffer is sized exactly to the declared length. A Message longer than
// maxMessage is rejected before anything is allocated; zero means DefaultMaxMessage.
func Decode(r io.Reader, maxMessage uint32) (Frame, error) {
	if maxMessage == 0 {
		maxMessage = DefaultMaxMessage
	}

	var typ [1]byte
	if _, err := io.ReadFull(r, typ[:]); err != nil {
		return Frame{}, fmt.Errorf("%w: reading frame type: %w", ErrConnectionClosed, err)
	}

	f := Frame{Type: FrameType(typ[0])}
	var length uint32

	switch f.Type {
	case TypeMessage:
		var prefix [4]byte
		if err := readPrefix(r, prefix[:]); err != nil {
			return Frame{}, err
		}
		length = binary.BigEndian.Uint32(prefix[:])
		if length > maxMessage {
			return Frame{}, fmt.Errorf("%w: message length %d exceeds %d", ErrProtocol, length, maxMessage)
		}
	case TypeUsername:
		var prefix [1]byte
		if err := readPrefix(r, prefix[:]); err != nil {
			return Frame{}, err
		}
		length = uint32(prefix[0])
	case TypeInit, TypePeerList:
		return f, nil
	default:
		return Frame{}, fmt.Errorf("%w: unknown frame type %d", ErrProtocol, typ[0])
	}

	f.Payload = make([]byte, length)
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return Frame{}, fmt.Errorf("%w: reading %d byte payload: %w", ErrConnectionClosed, length, err)
	}
	return f, nil
}

// readPrefix fills buf. A prefix cut off part way is a protocol error,
// a stream that fails before the first prefix byte is a closed connection.
func readPrefix(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: truncated length prefix", ErrProtocol)
	default:
		return fmt.Errorf("%w: reading length prefix: %w", ErrConnectionClosed, err)
	}
}
