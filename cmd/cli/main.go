package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/vk/flowgridgo/internal/app"
	"github.com/vk/flowgridgo/internal/cli"
)

func main() {
	// Replaced by the configured logger once flags are parsed.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Stdout, os.Args[1:])
	cancel()
	if err == nil {
		return
	}

	code := 1
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}

func run(ctx context.Context, stdout io.Writer, args []string) (err error) {
	cfg, done, err := cli.Parse(args, stdout)
	if err != nil || done {
		return err
	}

	// NewApp panics on an invalid node catalog.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flowgridgo: %v", r)
		}
	}()
	return app.NewApp(stdout, cfg).Run(ctx)
}
