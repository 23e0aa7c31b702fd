package peer

import (
	"net"

	"github.com/google/uuid"
)

// Peer is one live connection as seen by the registry.
type Peer interface {
	ID() uuid.UUID
	GetAddress() net.Addr
	GetConnection() net.Conn
	Name() string
	SetName(name string) string
	Send(data []byte) error
	Close() error
}
