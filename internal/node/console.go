package node

import (
	"fmt"
	"io"
	"sync"

	"github.com/ripple-mq/ripple-chat/pkg/p2p/peer"
)

// Console prints received messages. Readers of different peers share it.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Print writes ">{name}: {text}" on its own line.
func (c *Console) Print(from peer.Peer, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, ">%s: %s\n", from.Name(), text)
}
