// Command procd serves a router of procedures over HTTP and NATS.
package main

import (
	"context"
	"os"

	"github.com/bjaus/procedure/internal/cli"
)

func main() {
	os.Exit(cli.Main(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
