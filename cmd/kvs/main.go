// Command kvs is a local, non-networked CLI front end: it operates
// directly on a store rooted at the current working directory, with no
// server process involved.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/epokhe/kvs/internal/kvserr"
	"github.com/epokhe/kvs/internal/kvstore"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func usage() string {
	return "usage:\n" +
		"  kvs set <KEY> <VALUE>\n" +
		"  kvs get <KEY>\n" +
		"  kvs rm <KEY>\n"
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage())
		return 1
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	store, err := kvstore.Open(wd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	switch args[0] {
	case "set":
		if len(args) != 3 {
			fmt.Fprint(os.Stderr, usage())
			return 1
		}
		if err := store.Set(args[1], args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0

	case "get":
		if len(args) != 2 {
			fmt.Fprint(os.Stderr, usage())
			return 1
		}
		value, found, err := store.Get(args[1])
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
		if len(args) != 2 {
			fmt.Fprint(os.Stderr, usage())
			return 1
		}
		if err := store.Remove(args[1]); err != nil {
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
