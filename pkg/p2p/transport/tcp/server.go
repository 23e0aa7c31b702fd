package tcp

import (
	"errors"
	"net"

	"github.com/charmbracelet/log"
)

// connectionLoop accepts incoming connections until the listener is closed.
// A failed accept is logged and skipped.
func (t *Transport) connectionLoop(ln net.Listener, done chan struct{}) {
	defer func() {
		log.Infof("Stopped accepting connections on %s", ln.Addr())
		close(done)
	}()

	for {
		conn, err := ln.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			log.Warn("failed to accept connection", "addr", ln.Addr(), "err", err)
			continue
		}

		t.register(conn, "inbound")
	}
}
