package transport

import (
	"github.com/google/uuid"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/encoder"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/peer"
)

type Transport interface {
	Listen() error
	Stop() error
	Dial(addr string) (uuid.UUID, error)
	Broadcast(f encoder.Frame) ([]peer.Outcome, error)
}
