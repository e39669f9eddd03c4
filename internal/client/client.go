// Package client implements a single-connection, non-pipelined client: one
// TCP connection, one request in flight at a time, one decoded response
// per call.
package client

import (
	"bufio"
	"encoding/json"
	"net"

	"github.com/epokhe/kvs/internal/protocol"
)

// Client wraps a single TCP connection. It is not safe for concurrent use
// and does not pipeline requests: each call waits for its response before
// the connection can be used again.
type Client struct {
	conn net.Conn
	w    *bufio.Writer
	dec  *json.Decoder
}

// Connect dials addr and wraps the connection with a buffered writer and a
// streaming JSON decoder for responses.
func Connect(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		w:    bufio.NewWriter(conn),
		dec:  json.NewDecoder(bufio.NewReader(conn)),
	}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) send(req protocol.Request) error {
	if err := json.NewEncoder(c.w).Encode(req); err != nil {
		return err
	}
	return c.w.Flush()
}

// Get issues a Get request and returns the value and whether the key was
// found. An Err("Key not found") response is not possible for Get (a miss
// is Ok(None)); other Err responses surface as a kvserr.StringErr.
func (c *Client) Get(key string) (value string, found bool, err error) {
	if err := c.send(protocol.NewGet(key)); err != nil {
		return "", false, err
	}

	var resp protocol.GetResponse
	if err := c.dec.Decode(&resp); err != nil {
		return "", false, err
	}
	if !resp.IsOk() {
		return "", false, protocol.AsError(resp.ErrMessage())
	}
	value, found = resp.Value()
	return value, found, nil
}

// Set issues a Set request and waits for its response.
func (c *Client) Set(key, value string) error {
	if err := c.send(protocol.NewSet(key, value)); err != nil {
		return err
	}

	var resp protocol.SetResponse
	if err := c.dec.Decode(&resp); err != nil {
		return err
	}
	if !resp.IsOk() {
		return protocol.AsError(resp.ErrMessage())
	}
	return nil
}

// Remove issues a Remove request and waits for its response. A missing key
// surfaces as a kvserr.CodeKeyNotFound error.
func (c *Client) Remove(key string) error {
	if err := c.send(protocol.NewRemove(key)); err != nil {
		return err
	}

	var resp protocol.RemoveResponse
	if err := c.dec.Decode(&resp); err != nil {
		return err
	}
	if !resp.IsOk() {
		return protocol.AsError(resp.ErrMessage())
	}
	return nil
}
