package encoder

import (
	"fmt"
	"io"
)

type Encoder interface {
	Encode(value any, buff io.Writer) error
}
type Decoder interface {
	Decode(value io.Reader, res any) error
}

// FrameEncoder writes frames using the chat wire format.
// It accepts a Frame, a *Frame or a string (sent as a Message).
type FrameEncoder struct {
}

// FrameDecoder reads one frame into a *Frame.
type FrameDecoder struct {
	MaxMessage uint32
}

func (e FrameEncoder) Encode(value any, buff io.Writer) error {
	var f Frame
	switch v := value.(type) {
	case Frame:
		f = v
	case *Frame:
		f = *v
	case string:
		f = NewMessage(v)
	default:
		return fmt.Errorf("frame encoder: unsupported value %T", value)
	}

	data, err := Encode(f)
	if err != nil {
		return err
	}
	_, err = buff.Write(data)
	return err
}

func (d FrameDecoder) Decode(value io.Reader, res any) error {
	out, ok := res.(*Frame)
	if !ok {
		return fmt.Errorf("frame decoder: unsupported target %T", res)
	}
	f, err := Decode(value, d.MaxMessage)
	if err != nil {
		return err
	}
	*out = f
	return nil
}
