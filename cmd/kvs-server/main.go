// Command kvs-server runs the TCP front end over one of the two
// engine.Engine implementations. Flag parsing follows
// calvinalkan-agent-task's pflag-via-alias-import style; signal handling for
// graceful shutdown is grounded on Epokhe-bitdb's cmd/server/main.go.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/epokhe/kvs/internal/enginefile"
	"github.com/epokhe/kvs/internal/kvstore"
	"github.com/epokhe/kvs/internal/pebbleengine"
	"github.com/epokhe/kvs/internal/server"
)

const (
	engineKvs    = "kvs"
	enginePebble = "pebble"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("kvs-server", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:4000", "address to listen on")
	eng := fs.String("engine", engineKvs, "storage engine to use: kvs or pebble")
	dir := fs.String("dir", ".", "data directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *eng != engineKvs && *eng != enginePebble {
		return fmt.Errorf("unknown engine %q (want %q or %q)", *eng, engineKvs, enginePebble)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if err := enginefile.Ensure(*dir, *eng); err != nil {
		return err
	}

	var (
		srv     *server.Server
		closeFn func() error
	)
	switch *eng {
	case engineKvs:
		store, err := kvstore.Open(*dir, kvstore.WithLogger(sugar))
		if err != nil {
			return err
		}
		srv = server.New(store, sugar)
		closeFn = store.Close
	case enginePebble:
		adapter, err := pebbleengine.Open(*dir)
		if err != nil {
			return err
		}
		srv = server.New(adapter, sugar)
		closeFn = adapter.Close
	}
	defer closeFn()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}

	sugar.Infow("starting server", "addr", ln.Addr().String(), "engine", *eng, "dir", *dir)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		sugar.Infow("shutting down", "signal", sig.String())
		return ln.Close()
	}
}
