package testutils

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

// SetRoot changes the working directory to the module root.
func SetRoot() {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("Project root not found")
		}
		dir = parent
	}
	os.Chdir(dir)
}

// RandLocalAddr returns a loopback address with a port that was free a moment ago.
func RandLocalAddr(t testing.TB) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving local port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}

// ConnPair returns both ends of a loopback TCP connection.
// local is the dialing side, remote the accepted side. Both are closed on cleanup.
func ConnPair(t testing.TB) (local net.Conn, remote net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- c
	}()

	local, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	remote, ok := <-accepted
	if !ok {
		local.Close()
		t.Fatalf("accept failed")
	}
	t.Cleanup(func() {
		local.Close()
		remote.Close()
	})
	return local, remote
}
