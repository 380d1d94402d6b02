package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/petfriends/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(os.Stderr, "petfriends: %v\n", err)
		}
		os.Exit(1)
	}
}

// flushLogs runs once the command finishes, whether or not it failed.
var flushLogs = logger.Close

func run(args []string) error {
	defer func() { _ = flushLogs() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
