package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/soundcase/widgetapi/internal/shared"
	"github.com/soundcase/widgetapi/internal/store"
	"github.com/urfave/cli/v3"
)

// Runner holds the dependencies for CLI commands and provides a method per
// command action.
type Runner struct {
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided options.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, loginCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the config file at path, falling back to defaults when it
// does not exist, and applies environment overrides.
func (r *Runner) loadConfig(path string) *shared.Config {
	config := shared.DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			r.logger.Warnf("failed to load config, using defaults: %v", err)
		} else {
			config = loaded
		}
	}

	config.ApplyEnv()
	return config
}

// openStore builds the token store selected by the config. The returned
// close function releases the backing connection.
func (r *Runner) openStore(ctx context.Context, config *shared.Config) (store.TokenStore, func() error, error) {
	switch config.Store.Backend {
	case "sqlite":
		db, err := shared.NewDatabase(config.Store.Path)
		if err != nil {
			return nil, nil, err
		}

		s, err := store.NewSQLiteStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}

		return s, db.Close, nil
	case "redis":
		s, err := store.NewRedisStore(ctx, config.Store.RedisAddr, config.Store.RedisPassword, config.Store.RedisDB)
		if err != nil {
			return nil, nil, err
		}

		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", shared.ErrInvalidConfig, config.Store.Backend)
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
