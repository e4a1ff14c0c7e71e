// Command firmcli is the command-line front end for firmgraph: a
// text-based, single-user business-graph engine (§5).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-firm/firmgraph/internal/cli"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the entrypoint's logic behind an io.Writer so it can be
// exercised in tests without touching the real stdout.
func run(outW io.Writer, args []string) error {
	return cli.Run(context.Background(), args, outW)
}
