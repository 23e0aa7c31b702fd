package tcp

import (
	"bufio"
	"errors"
	"net"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ripple-mq/ripple-chat/pkg/p2p/encoder"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/peer"
)

// handleConnection is the reader for one peer. It decodes frames in order
// and dispatches them until a decode fails, then removes the peer.
func (t *Transport) handleConnection(id uuid.UUID, conn net.Conn) {
	name := conn.RemoteAddr().String()
	defer func() {
		if t.Registry.Remove(id) {
			log.Info("peer disconnected", "id", id, "name", name)
		}
	}()

	if p, err := t.Registry.Find(id); err == nil && t.OnPeerConnected != nil {
		t.OnPeerConnected(p)
	}

	r := bufio.NewReader(conn)
	for {
		var frame encoder.Frame
		if err := t.Decoder.Decode(r, &frame); err != nil {
			if errors.Is(err, encoder.ErrProtocol) {
				log.Warn("dropping peer after protocol error", "id", id, "name", name, "err", err)
			} else {
				log.Debug("peer connection closed", "id", id, "name", name, "err", err)
			}
			return
		}
		if n := t.dispatch(id, frame); n != "" {
			name = n
		}
	}
}

// dispatch handles one decoded frame and returns the peer's current display name.
func (t *Transport) dispatch(id uuid.UUID, frame encoder.Frame) string {
	p, err := t.Registry.Find(id)
	if err != nil {
		log.Warn("frame from unregistered peer", "id", id, "type", frame.Type, "err", err)
		return ""
	}

	switch frame.Type {
	case encoder.TypeMessage:
		if t.OnMessage != nil {
			t.OnMessage(p, frame.Text())
		}
	case encoder.TypeUsername:
		t.rename(p, frame.Text())
	case encoder.TypeInit, encoder.TypePeerList:
		log.Debug("ignoring frame", "type", frame.Type, "id", id)
	}
	return p.Name()
}

func (t *Transport) rename(p peer.Peer, name string) {
	if name == "" {
		log.Debug("ignoring empty username", "id", p.ID())
		return
	}
	old := p.SetName(name)
	if old != name {
		log.Info("peer renamed", "id", p.ID(), "from", old, "to", name)
	}
}
