package server_test

import (
	"net"
	"os"
	"testing"

	"github.com/epokhe/kvs/internal/client"
	"github.com/epokhe/kvs/internal/kvserr"
	"github.com/epokhe/kvs/internal/kvstore"
	"github.com/epokhe/kvs/internal/server"
)

// startTestServer opens a store in a fresh temp dir, binds an ephemeral
// port, and serves it in the background for the duration of the test, so a
// client talking to it over TCP can be checked against the same
// Set/Get/Remove semantics as talking to the engine directly.
func startTestServer(t *testing.T) (addr string) {
	t.Helper()

	dir, err := os.MkdirTemp("", "kvs_server_test_*")
	if err != nil {
		t.Fatalf("MkdirTemp failed: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	store, err := kvstore.Open(dir)
	if err != nil {
		t.Fatalf("kvstore.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	srv := server.New(store, nil)
	go func() { _ = srv.Serve(ln) }()

	return ln.Addr().String()
}

func TestClientServerSetGetRemove(t *testing.T) {
	addr := startTestServer(t)

	c, err := client.Connect(addr)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	if err := c.Set("foo", "bar"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, found, err := c.Get("foo")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || value != "bar" {
		t.Errorf("expected found=true value='bar', got found=%v value=%q", found, value)
	}

	if err := c.Remove("foo"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	_, found, err = c.Get("foo")
	if err != nil {
		t.Fatalf("Get after Remove failed: %v", err)
	}
	if found {
		t.Error("expected key to be gone after Remove")
	}
}

func TestClientGetMissingKey(t *testing.T) {
	addr := startTestServer(t)

	c, err := client.Connect(addr)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	_, found, err := c.Get("never-set")
	if err != nil {
		t.Fatalf("Get returned unexpected error: %v", err)
	}
	if found {
		t.Error("expected found=false for a key that was never set")
	}
}

func TestClientRemoveMissingKeyIsKeyNotFound(t *testing.T) {
	addr := startTestServer(t)

	c, err := client.Connect(addr)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	err = c.Remove("never-set")
	if err == nil {
		t.Fatal("expected an error removing a key that was never set")
	}
	if !kvserr.IsKeyNotFound(err) {
		t.Errorf("expected a KeyNotFound error, got %v", err)
	}
}

// TestSequentialConnectionsSeeEarlierWrites checks that even though the
// server handles connections one at a time, each new connection still
// observes writes made over a previous, now-closed connection.
func TestSequentialConnectionsSeeEarlierWrites(t *testing.T) {
	addr := startTestServer(t)

	c1, err := client.Connect(addr)
	if err != nil {
		t.Fatalf("Connect (c1) failed: %v", err)
	}
	if err := c1.Set("shared", "value"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close (c1) failed: %v", err)
	}

	c2, err := client.Connect(addr)
	if err != nil {
		t.Fatalf("Connect (c2) failed: %v", err)
	}
	defer c2.Close()

	value, found, err := c2.Get("shared")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || value != "value" {
		t.Errorf("expected a second connection to see the first connection's write, got found=%v value=%q", found, value)
	}
}
