// Package main provides the entry point for the pyprune CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sumatoshi-tech/pyprune/cmd/pyprune/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := commands.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}
