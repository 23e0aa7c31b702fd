package encoder_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/ripple-mq/ripple-chat/pkg/p2p/encoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		frame   encoder.Frame
		want    []byte
		wantErr error
	}{
		{
			name:  "message",
			frame: encoder.NewMessage("hello"),
			want:  []byte{0, 0, 0, 0, 5, 'h', 'e', 'l', 'l', 'o'},
		},
		{
			name:  "empty message",
			frame: encoder.NewMessage(""),
			want:  []byte{0, 0, 0, 0, 0},
		},
		{
			name:  "username",
			frame: encoder.NewUsername("bob"),
			want:  []byte{1, 3, 'b', 'o', 'b'},
		},
		{
			name:  "init",
			frame: encoder.Frame{Type: encoder.TypeInit},
			want:  []byte{2},
		},
		{
			name:  "peer list",
			frame: encoder.Frame{Type: encoder.TypePeerList},
			want:  []byte{3},
		},
		{
			name:    "username longer than 255 bytes",
			frame:   encoder.NewUsername(strings.Repeat("a", 256)),
			wantErr: encoder.ErrPayloadTooLarge,
		},
		{
			name:    "init with payload",
			frame:   encoder.Frame{Type: encoder.TypeInit, Payload: []byte("x")},
			wantErr: encoder.ErrProtocol,
		},
		{
			name:    "unknown type",
			frame:   encoder.Frame{Type: 9},
			wantErr: encoder.ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encoder.Encode(tt.frame)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	texts := []string{"", "hello", "ünïcödé ✓", strings.Repeat("x", 255), strings.Repeat("long ", 4096)}

	for _, text := range texts {
		for _, typ := range []encoder.FrameType{encoder.TypeMessage, encoder.TypeUsername} {
			if typ == encoder.TypeUsername && len(text) > 255 {
				continue
			}
			f := encoder.Frame{Type: typ, Payload: []byte(text)}
			data, err := encoder.Encode(f)
			require.NoError(t, err)

			got, err := encoder.Decode(bytes.NewReader(data), 0)
			require.NoError(t, err)
			assert.Equal(t, typ, got.Type)
			assert.Equal(t, text, got.Text())
			assert.Len(t, got.Payload, len(text))
		}
	}
}

func TestDecode_ShortReads(t *testing.T) {
	data, err := encoder.Encode(encoder.NewMessage("hello world"))
	require.NoError(t, err)

	got, err := encoder.Decode(iotest.OneByteReader(bytes.NewReader(data)), 0)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Text())
	assert.Equal(t, len("hello world"), cap(got.Payload))
}

func TestDecode_Sequential(t *testing.T) {
	var stream bytes.Buffer
	for _, f := range []encoder.Frame{
		encoder.NewUsername("alice"),
		encoder.NewMessage("one"),
		{Type: encoder.TypeInit},
		encoder.NewMessage("two"),
	} {
		require.NoError(t, encoder.FrameEncoder{}.Encode(f, &stream))
	}

	r := iotest.HalfReader(&stream)
	var got []string
	for {
		var f encoder.Frame
		err := encoder.FrameDecoder{}.Decode(r, &f)
		if errors.Is(err, encoder.ErrConnectionClosed) {
			break
		}
		require.NoError(t, err)
		got = append(got, f.Type.String()+":"+f.Text())
	}
	assert.Equal(t, []string{"Username:alice", "Message:one", "Init:", "Message:two"}, got)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		max     uint32
		wantErr error
	}{
		{
			name:    "empty stream",
			input:   nil,
			wantErr: encoder.ErrConnectionClosed,
		},
		{
			name:    "closed before length",
			input:   []byte{0},
			wantErr: encoder.ErrConnectionClosed,
		},
		{
			name:    "truncated message length",
			input:   []byte{0, 0, 0},
			wantErr: encoder.ErrProtocol,
		},
		{
			name:    "declared 10 bytes, closed after 4",
			input:   []byte{0, 0, 0, 0, 10, 'a', 'b', 'c', 'd'},
			wantErr: encoder.ErrConnectionClosed,
		},
		{
			name:    "username closed mid payload",
			input:   []byte{1, 5, 'b', 'o'},
			wantErr: encoder.ErrConnectionClosed,
		},
		{
			name:    "unknown type",
			input:   []byte{7, 1, 2, 3},
			wantErr: encoder.ErrProtocol,
		},
		{
			name:    "message above limit",
			input:   []byte{0, 0xff, 0xff, 0xff, 0xff},
			max:     1024,
			wantErr: encoder.ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encoder.Decode(bytes.NewReader(tt.input), tt.max)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecode_ReadFailure(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(bytes.NewReader([]byte{0, 0, 0, 0, 4, 'a'}), iotest.ErrReader(boom))

	_, err := encoder.Decode(r, 0)
	assert.ErrorIs(t, err, encoder.ErrConnectionClosed)
	assert.ErrorIs(t, err, boom)
}

func TestFrameCodec_Adapters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encoder.FrameEncoder{}.Encode("hi", &buf))
	assert.Equal(t, []byte{0, 0, 0, 0, 2, 'h', 'i'}, buf.Bytes())

	assert.Error(t, encoder.FrameEncoder{}.Encode(42, &buf))

	var s string
	assert.Error(t, encoder.FrameDecoder{}.Decode(&buf, &s))
}
