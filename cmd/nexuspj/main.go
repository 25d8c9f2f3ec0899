// Command nexuspj ingests, searches and answers over Costa Rican case law
// published by NEXUS PJ.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute(ctx)
	cli.Release()
	stop()

	// cobra has already printed the error.
	if err != nil {
		os.Exit(1)
	}
}
