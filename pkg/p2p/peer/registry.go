package peer

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/ripple-mq/ripple-chat/pkg/p2p/encoder"
	"github.com/ripple-mq/ripple-chat/pkg/utils/collection"
)

var ErrPeerNotFound = errors.New("peer not found")

const (
	DefaultWriteTimeout     = 5 * time.Second
	DefaultBroadcastWorkers = 16
)

// Outcome is the result of delivering one broadcast frame to one peer.
type Outcome struct {
	ID   uuid.UUID
	Name string
	Err  error
}

type RegistryOpts struct {
	WriteTimeout     time.Duration // per send, zero disables the deadline
	BroadcastWorkers int           // concurrent sends within one broadcast
}

// Registry holds every live peer keyed by connection id.
// All map access goes through one lock, which is never held across a network send.
type Registry struct {
	peers *collection.ConcurrentMap[uuid.UUID, *TCPPeer]
	opts  RegistryOpts
}

func NewRegistry(opts ...RegistryOpts) *Registry {
	defaultOpts := RegistryOpts{WriteTimeout: DefaultWriteTimeout, BroadcastWorkers: DefaultBroadcastWorkers}
	if len(opts) > 0 {
		defaultOpts = opts[0]
	}
	if defaultOpts.BroadcastWorkers <= 0 {
		defaultOpts.BroadcastWorkers = DefaultBroadcastWorkers
	}
	return &Registry{
		peers: collection.NewConcurrentMap[uuid.UUID, *TCPPeer](),
		opts:  defaultOpts,
	}
}

// Insert registers conn as a new peer and returns its connection id.
// The peer is visible to every later Broadcast.
func (r *Registry) Insert(conn net.Conn) uuid.UUID {
	for {
		id := uuid.New()
		if r.peers.SetIfAbsent(id, NewTCPPeer(id, conn, r.opts.WriteTimeout)) {
			return id
		}
	}
}

// Find returns the peer for id or ErrPeerNotFound.
func (r *Registry) Find(id uuid.UUID) (Peer, error) {
	p, err := r.peers.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPeerNotFound, id)
	}
	return p, nil
}

// Remove drops id and closes its connection. It reports whether this call
// removed the peer; repeated or concurrent calls for the same id are no-ops.
func (r *Registry) Remove(id uuid.UUID) bool {
	p, err := r.peers.Delete(id)
	if err != nil {
		return false
	}
	if err := p.Close(); err != nil {
		log.Debug("closing peer connection", "id", id, "err", err)
	}
	return true
}

// RemoveAll drops every registered peer.
func (r *Registry) RemoveAll() {
	for _, p := range r.peers.Values() {
		r.Remove(p.ID())
	}
}

func (r *Registry) Len() int {
	return r.peers.Len()
}

// Peers returns a snapshot of the registered peers.
func (r *Registry) Peers() []Peer {
	snapshot := r.peers.Values()
	res := make([]Peer, 0, len(snapshot))
	for _, p := range snapshot {
		res = append(res, p)
	}
	return res
}

// Broadcast encodes f once and sends it to every peer registered at call time.
// A failed send does not stop delivery to the others: the failing peer is
// removed after the fan-out and its error is kept in the returned outcomes.
func (r *Registry) Broadcast(f encoder.Frame) ([]Outcome, error) {
	data, err := encoder.Encode(f)
	if err != nil {
		return nil, err
	}

	snapshot := r.peers.Values()
	if len(snapshot) == 0 {
		return nil, nil
	}

	p := pool.NewWithResults[Outcome]().WithMaxGoroutines(min(r.opts.BroadcastWorkers, len(snapshot)))
	for _, peerNode := range snapshot {
		peerNode := peerNode
		p.Go(func() Outcome {
			return Outcome{ID: peerNode.ID(), Name: peerNode.Name(), Err: peerNode.Send(data)}
		})
	}
	outcomes := p.Wait()

	for _, o := range outcomes {
		if o.Err == nil {
			continue
		}
		log.Warn("broadcast failed, dropping peer", "id", o.ID, "name", o.Name, "err", o.Err)
		r.Remove(o.ID)
	}
	return outcomes, nil
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var res []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			res = append(res, o)
		}
	}
	return res
}
