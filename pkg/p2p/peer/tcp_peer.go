package peer

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/encoder"
	"github.com/ripple-mq/ripple-chat/pkg/utils/collection"
)

type TCPPeer struct {
	Conn net.Conn

	id           uuid.UUID
	name         *collection.ConcurrentValue[string]
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewTCPPeer wraps conn. The display name defaults to the remote "ip:port".
func NewTCPPeer(id uuid.UUID, conn net.Conn, writeTimeout time.Duration) *TCPPeer {
	return &TCPPeer{
		Conn:         conn,
		id:           id,
		name:         collection.NewConcurrentValue(conn.RemoteAddr().String()),
		writeTimeout: writeTimeout,
	}
}

func (p *TCPPeer) ID() uuid.UUID {
	return p.id
}

func (p *TCPPeer) GetAddress() net.Addr {
	return p.Conn.RemoteAddr()
}

func (p *TCPPeer) GetConnection() net.Conn {
	return p.Conn
}

func (p *TCPPeer) Name() string {
	return p.name.Get()
}

// SetName replaces the display name and returns the previous one.
func (p *TCPPeer) SetName(name string) string {
	return p.name.Swap(name)
}

// Send writes data as one unit. Concurrent senders never interleave.
func (p *TCPPeer) Send(data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.writeTimeout > 0 {
		if err := p.Conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
			return fmt.Errorf("%w: %w", encoder.ErrConnectionClosed, err)
		}
		defer p.Conn.SetWriteDeadline(time.Time{})
	}
	if _, err := p.Conn.Write(data); err != nil {
		return fmt.Errorf("%w: send to %s: %w", encoder.ErrConnectionClosed, p.Name(), err)
	}
	return nil
}

// Close closes the underlying connection. Only the first call reaches the socket.
func (p *TCPPeer) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.Conn.Close()
	})
	return p.closeErr
}
