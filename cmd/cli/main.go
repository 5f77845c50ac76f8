package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/launchgridgo/internal/app"
	"github.com/specialistvlad/launchgridgo/internal/cli"
	"github.com/specialistvlad/launchgridgo/internal/composer"
	"github.com/specialistvlad/launchgridgo/internal/supervisor"
)

// main is the entrypoint for the launchgridgo application.
func main() {
	// Use a minimal logger until the full one is configured.
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

// run encapsulates the main application logic for easier testing and error
// handling. It maps the launch outcome onto the documented exit codes.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// An interrupt or termination signal starts the ordered shutdown; a
	// second one kills us the normal way.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.NewApp(outW, os.Stderr, appConfig)
	if err := application.Run(ctx); err != nil {
		var compErr *composer.Error
		if errors.As(err, &compErr) {
			return &cli.ExitError{Code: cli.ExitComposition, Message: err.Error()}
		}
		if errors.Is(err, supervisor.ErrRequiredNodeExit) {
			return &cli.ExitError{Code: cli.ExitFatalCrash, Message: err.Error()}
		}
		return err
	}
	return nil
}
