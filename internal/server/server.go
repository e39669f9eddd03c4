// Package server implements the TCP front end: a listener that accepts
// connections sequentially, and per connection, a streaming
// decode-dispatch-encode loop that serves exactly one response per request,
// in request order.
package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/epokhe/kvs/internal/engine"
	"github.com/epokhe/kvs/internal/protocol"
)

// Server holds exactly one engine and serves it over TCP.
type Server struct {
	engine engine.Engine
	log    *zap.SugaredLogger
}

func New(eng engine.Engine, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{engine: eng, log: log}
}

// Run binds addr and accepts connections sequentially until the listener is
// closed; any other Accept error is logged and accepting continues. The
// server does not fan
// connections out to workers, so a blocked read on one connection holds up
// acceptance of the next — a deliberate simplicity trade-off for a single
// in-process engine that only ever takes one request at a time anyway.
func (s *Server) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	s.log.Infow("listening", "addr", ln.Addr().String())
	return s.Serve(ln)
}

// Serve accepts and handles connections on an already-bound listener, which
// lets callers bind to ":0" in tests and read back the assigned port.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Errorw("accept failed", "error", err)
			continue
		}

		if err := s.serveConn(conn); err != nil && !errors.Is(err, io.EOF) {
			s.log.Errorw("error serving client", "remote", conn.RemoteAddr(), "error", err)
		}
	}
}

func (s *Server) serveConn(conn net.Conn) error {
	defer conn.Close()

	dec := json.NewDecoder(bufio.NewReader(conn))
	w := bufio.NewWriter(conn)

	for {
		var req protocol.Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		s.log.Debugw("received request", "remote", conn.RemoteAddr(), "op", req.Op, "key", req.Key)

		var resp any
		switch req.Op {
		case protocol.OpGet:
			value, found, err := s.engine.Get(req.Key)
			if err != nil {
				resp = protocol.GetErr(err.Error())
			} else {
				resp = protocol.GetOk(value, found)
			}
		case protocol.OpSet:
			if err := s.engine.Set(req.Key, req.Value); err != nil {
				resp = protocol.SetErr(err.Error())
			} else {
				resp = protocol.SetOk()
			}
		case protocol.OpRemove:
			if err := s.engine.Remove(req.Key); err != nil {
				resp = protocol.RemoveErr(err.Error())
			} else {
				resp = protocol.RemoveOk()
			}
		}

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
