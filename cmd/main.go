package main

import (
	"context"
	"os"

	"github.com/soundcase/widgetapi/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "1.0.0"

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "widgetapi",
		Usage:    "Token proxy between the now-playing browser widget and Spotify",
		Version:  version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
