// Command kvs-client is the networked counterpart to cmd/kvs: it speaks
// the wire protocol to a running kvs-server instead of opening a store
// directly. Flag/subcommand parsing follows the same pflag-via-alias style
// as cmd/kvs-server.
package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/epokhe/kvs/internal/client"
	"github.com/epokhe/kvs/internal/kvserr"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func usage() string {
	return "usage:\n" +
		"  kvs-client --addr HOST:PORT set <KEY> <VALUE>\n" +
		"  kvs-client --addr HOST:PORT get <KEY>\n" +
		"  kvs-client --addr HOST:PORT rm <KEY>\n"
}

func run(args []string) int {
	fs := flag.NewFlagSet("kvs-client", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:4000", "server address")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, usage())
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprint(os.Stderr, usage())
		return 1
	}

	c, err := client.Connect(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer c.Close()

	switch rest[0] {
	case "set":
		if len(rest) != 3 {
			fmt.Fprint(os.Stderr, usage())
			return 1
		}
		if err := c.Set(rest[1], rest[2]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0

	case "get":
		if len(rest) != 2 {
			fmt.Fprint(os.Stderr, usage())
			return 1
		}
		value, found, err := c.Get(rest[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		if !found {
			fmt.Println("Key not found")
			return 0
		}
		fmt.Println(value)
		return 0

	case "rm":
		if len(rest) != 2 {
			fmt.Fprint(os.Stderr, usage())
			return 1
		}
		if err := c.Remove(rest[1]); err != nil {
			var kerr *kvserr.Error
			if errors.As(err, &kerr) && kerr.Code() == kvserr.CodeKeyNotFound {
				fmt.Println("Key not found")
				return 1
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0

	default:
		fmt.Fprint(os.Stderr, usage())
		return 1
	}
}
