// Package node wires the chat transport, console and periodic tasks into a
// single context object that is constructed once per process.
package node

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ripple-mq/ripple-chat/internal/cronjob"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/encoder"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/peer"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/transport/tcp"
	"github.com/ripple-mq/ripple-chat/pkg/utils/config"
)

type Node struct {
	cfg         *config.Config
	transport   *tcp.Transport
	console     *Console
	broadcaster *Broadcaster
	scheduler   *cronjob.CronJobScheduler
	reportID    int
}

// New builds a node from a private copy of cfg. Received messages are printed to out.
func New(cfg *config.Config, out io.Writer) (*Node, error) {
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &Node{cfg: cfg, console: NewConsole(out)}
	tr, err := tcp.NewTransport(cfg.ListenAddr(), tcp.TransportOpts{
		WriteTimeout:     cfg.WriteTimeout(),
		DialTimeout:      cfg.DialTimeout(),
		MaxMessage:       cfg.Transport.Max_message_bytes,
		BroadcastWorkers: cfg.Transport.Broadcast_workers,
		OnMessage:        n.console.Print,
		OnPeerConnected:  n.announce,
	})
	if err != nil {
		return nil, err
	}
	n.transport = tr
	n.broadcaster = NewBroadcaster(tr, int(cfg.Transport.Max_message_bytes))
	return n, nil
}

// Start listens for peers, joins through the seed when configured and
// schedules the peer report.
func (n *Node) Start() error {
	if err := n.transport.Listen(); err != nil {
		return err
	}
	if n.cfg.ShouldBootstrap() {
		if _, err := n.Bootstrap(n.cfg.Node.Seed); err != nil {
			n.transport.Shutdown()
			return err
		}
	}
	if n.cfg.Report.Schedule != "" {
		n.scheduler = cronjob.NewCronJobScheduler()
		id, err := n.scheduler.Schedule(n.cfg.Report.Schedule, n.report)
		if err != nil {
			n.Stop()
			return err
		}
		n.reportID = id
	}
	return nil
}

// Bootstrap dials a seed peer and registers it like any inbound peer.
func (n *Node) Bootstrap(addr string) (uuid.UUID, error) {
	id, err := n.transport.Dial(addr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bootstrap: %w", err)
	}
	log.Info("joined through seed", "seed", addr, "id", id)
	return id, nil
}

// Run broadcasts console input until it ends or ctx is cancelled. Once the
// input ends the node keeps printing what its peers send and returns when the
// last peer reader has exited.
func (n *Node) Run(ctx context.Context, in io.Reader) error {
	if err := n.broadcaster.Run(ctx, in); err != nil {
		return err
	}
	log.Info("console input closed, waiting for peers", "peers", n.transport.Registry.Len())

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-n.transport.Idle():
		return nil
	}
}

// Send broadcasts a single line.
func (n *Node) Send(line string) []peer.Outcome {
	return n.broadcaster.Send(line)
}

// Stop drops every peer and waits for their readers.
func (n *Node) Stop() {
	if n.scheduler != nil {
		n.scheduler.Stop(n.reportID)
		n.scheduler.Shutdown()
	}
	if err := n.transport.Shutdown(); err != nil {
		log.Debug("closing listener", "err", err)
	}
}

func (n *Node) Addr() net.Addr {
	return n.transport.Addr()
}

func (n *Node) Peers() []peer.Peer {
	return n.transport.Registry.Peers()
}

// announce tells a freshly registered peer our username, if we have one.
func (n *Node) announce(p peer.Peer) {
	if n.cfg.Node.Username == "" {
		return
	}
	if err := n.transport.SendTo(p.ID(), encoder.NewUsername(n.cfg.Node.Username)); err != nil {
		log.Warn("failed to announce username", "id", p.ID(), "err", err)
	}
}

func (n *Node) report() {
	peers := n.Peers()
	names := make([]string, 0, len(peers))
	for _, p := range peers {
		names = append(names, p.Name())
	}
	log.Info("connected peers", "count", len(peers), "names", strings.Join(names, ", "))
}
