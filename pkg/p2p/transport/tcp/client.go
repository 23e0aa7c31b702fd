package tcp

import (
	"bytes"
	"fmt"
	"net"

	"github.com/google/uuid"

	"github.com/ripple-mq/ripple-chat/pkg/p2p/encoder"
)

// Dial connects to addr over IPv4 and registers the connection as an ordinary peer.
// Host names resolve to their IPv4 address, so "localhost" names peers 127.0.0.1.
func (t *Transport) Dial(addr string) (uuid.UUID, error) {
	conn, err := net.DialTimeout("tcp4", addr, t.DialTimeout)
	if err != nil {
		return uuid.Nil, fmt.Errorf("unable to establish connection with %s: %w", addr, err)
	}
	return t.register(conn, "outbound"), nil
}

// SendTo encodes f and writes it to a single peer. A failed send drops the peer.
func (t *Transport) SendTo(id uuid.UUID, f encoder.Frame) error {
	p, err := t.Registry.Find(id)
	if err != nil {
		return err
	}

	var msg bytes.Buffer
	if err := t.Encoder.Encode(f, &msg); err != nil {
		return err
	}
	if err := p.Send(msg.Bytes()); err != nil {
		t.Registry.Remove(id)
		return err
	}
	return nil
}
