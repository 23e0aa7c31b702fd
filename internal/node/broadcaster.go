package node

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ripple-mq/ripple-chat/pkg/p2p/encoder"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/peer"
	"github.com/ripple-mq/ripple-chat/pkg/p2p/transport"
)

// Broadcaster turns local lines of text into Message frames for every peer.
// Frames received from peers are never re-broadcast.
type Broadcaster struct {
	transport transport.Transport
	maxLine   int
}

func NewBroadcaster(t transport.Transport, maxLine int) *Broadcaster {
	if maxLine <= 0 {
		maxLine = int(encoder.DefaultMaxMessage)
	}
	return &Broadcaster{transport: t, maxLine: maxLine}
}

// Send broadcasts one line and returns the per-peer outcomes.
func (b *Broadcaster) Send(line string) []peer.Outcome {
	outcomes, err := b.transport.Broadcast(encoder.NewMessage(line))
	if err != nil {
		log.Error("failed to encode message", "err", err)
		return nil
	}
	if failed := peer.Failed(outcomes); len(failed) > 0 {
		log.Warnf("message delivered to %d of %d peers", len(outcomes)-len(failed), len(outcomes))
	}
	return outcomes
}

// Run broadcasts every line read from r until r is exhausted or ctx is done.
// Lines longer than the message limit are logged and skipped.
func (b *Broadcaster) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		errc <- b.readLines(ctx, r, lines)
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			b.Send(line)
		}
	}
}

func (b *Broadcaster) readLines(ctx context.Context, r io.Reader, lines chan<- string) error {
	br := bufio.NewReader(r)
	var (
		line     []byte
		overlong bool
	)
	for {
		frag, more, err := br.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if !overlong && len(line)+len(frag) > b.maxLine {
			overlong, line = true, line[:0]
		}
		if !overlong {
			line = append(line, frag...)
		}
		if more {
			continue
		}

		if overlong {
			log.Warn("dropping console line above message limit", "limit", b.maxLine)
		} else {
			select {
			case lines <- strings.TrimSuffix(string(line), "\r"):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		line, overlong = line[:0], false
	}
}
