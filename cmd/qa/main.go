package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/doeshing/qa/internal/infrastructure/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	opts := cli.Options{Verbose: isVerbose()}
	code := cli.Run(ctx, opts, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("QA_DEBUG"), "1") || strings.EqualFold(os.Getenv("QA_DEBUG"), "true")
}
