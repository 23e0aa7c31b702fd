package tcp

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/ripple-mq/ripple-chat/pkg/p2p/encoder"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/peer"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/transport"
)

var _ transport.Transport = (*Transport)(nil)

type TransportOpts struct {
	WriteTimeout     time.Duration
	DialTimeout      time.Duration
	MaxMessage       uint32
	BroadcastWorkers int
	OnMessage        func(from peer.Peer, text string) // called for every Message frame
	OnPeerConnected  func(p peer.Peer)                 // called from the peer's reader before it starts decoding
}

// Transport accepts and dials TCP peers, runs one reader goroutine per
// connection and fans frames out through its peer registry.
type Transport struct {
	ListenAddr      net.Addr        // The address the transport listens on
	Registry        *peer.Registry  // Every live peer, keyed by connection id
	Encoder         encoder.Encoder // Encoder used for outbound frames
	Decoder         encoder.Decoder // Decoder used by peer readers
	OnMessage       func(from peer.Peer, text string)
	OnPeerConnected func(p peer.Peer)
	DialTimeout     time.Duration

	mu         sync.Mutex
	listener   net.Listener
	acceptDone chan struct{}
	readers    conc.WaitGroup

	activeMu sync.Mutex
	active   int
	idle     chan struct{} // closed while no reader runs
}

// NewTransport creates a new Transport bound to addr once Listen is called.
func NewTransport(addr string, opts ...TransportOpts) (*Transport, error) {
	defaultOpts := TransportOpts{
		WriteTimeout:     peer.DefaultWriteTimeout,
		DialTimeout:      10 * time.Second,
		MaxMessage:       encoder.DefaultMaxMessage,
		BroadcastWorkers: peer.DefaultBroadcastWorkers,
	}
	if len(opts) > 0 {
		defaultOpts = opts[0]
	}

	address, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address type, %v", err)
	}
	idle := make(chan struct{})
	close(idle)
	return &Transport{
		ListenAddr: address,
		Registry: peer.NewRegistry(peer.RegistryOpts{
			WriteTimeout:     defaultOpts.WriteTimeout,
			BroadcastWorkers: defaultOpts.BroadcastWorkers,
		}),
		Encoder:         encoder.FrameEncoder{},
		Decoder:         encoder.FrameDecoder{MaxMessage: defaultOpts.MaxMessage},
		OnMessage:       defaultOpts.OnMessage,
		OnPeerConnected: defaultOpts.OnPeerConnected,
		DialTimeout:     defaultOpts.DialTimeout,
		idle:            idle,
	}, nil
}

// Listen binds the listener and starts the accept loop in the background.
func (t *Transport) Listen() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return fmt.Errorf("already listening on %s", t.listener.Addr())
	}

	ln, err := net.Listen(t.ListenAddr.Network(), t.ListenAddr.String())
	if err != nil {
		return fmt.Errorf("failed to start server, %v", err)
	}
	t.listener = ln
	t.ListenAddr = ln.Addr()
	t.acceptDone = make(chan struct{})
	log.Infof("TCP: Started listening at %s", t.ListenAddr)

	go t.connectionLoop(ln, t.acceptDone)
	return nil
}

// Addr returns the bound address, which carries the real port after Listen.
func (t *Transport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ListenAddr
}

// Stop stops accepting new connections.
// Existing peers keep sending and receiving.
func (t *Transport) Stop() error {
	t.mu.Lock()
	ln, done := t.listener, t.acceptDone
	t.listener = nil
	t.mu.Unlock()

	if ln == nil {
		return nil
	}
	err := ln.Close()
	<-done
	return err
}

// Shutdown stops accepting, drops every peer and waits for their readers to exit.
func (t *Transport) Shutdown() error {
	err := t.Stop()
	t.Registry.RemoveAll()
	t.readers.Wait()
	return err
}

// Broadcast sends f to every registered peer.
func (t *Transport) Broadcast(f encoder.Frame) ([]peer.Outcome, error) {
	return t.Registry.Broadcast(f)
}

// Close drops a single peer.
func (t *Transport) Close(id uuid.UUID) error {
	if !t.Registry.Remove(id) {
		return fmt.Errorf("%w: %s", peer.ErrPeerNotFound, id)
	}
	return nil
}

// register inserts conn into the registry and hands it to a new reader.
func (t *Transport) register(conn net.Conn, direction string) uuid.UUID {
	t.readerStarted()
	id := t.Registry.Insert(conn)
	log.Info("peer connected", "id", id, "addr", conn.RemoteAddr(), "direction", direction)

	t.readers.Go(func() {
		defer t.readerDone()
		t.handleConnection(id, conn)
	})
	return id
}

// Idle returns a channel that is closed once no peer reader is running.
// A reader started afterwards makes later calls return a fresh channel.
func (t *Transport) Idle() <-chan struct{} {
	t.activeMu.Lock()
	defer t.activeMu.Unlock()
	return t.idle
}

func (t *Transport) readerStarted() {
	t.activeMu.Lock()
	defer t.activeMu.Unlock()
	if t.active == 0 {
		t.idle = make(chan struct{})
	}
	t.active++
}

func (t *Transport) readerDone() {
	t.activeMu.Lock()
	defer t.activeMu.Unlock()
	t.active--
	if t.active == 0 {
		close(t.idle)
	}
}
