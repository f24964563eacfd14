package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundcase/widgetapi/internal/server"
	"github.com/soundcase/widgetapi/internal/spotify"
	"github.com/urfave/cli/v3"
)

// Serve runs the widget API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	if err := config.Validate(); err != nil {
		return err
	}

	tokens, closeStore, err := r.openStore(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer closeStore()

	client, err := spotify.NewClient(spotify.Config{
		ClientID:    config.Credentials.Spotify.ClientID,
		RedirectURI: config.Credentials.Spotify.RedirectURI,
	})
	if err != nil {
		return fmt.Errorf("failed to create spotify client: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(
		server.CORS(config.Server.AllowedOrigin),
		server.RequestLogger(r.logger),
		server.RateLimit(config.Server.RateLimit, config.Server.RateBurst),
		server.Recover(r.logger),
	)
	server.NewAPI(client, tokens, r.logger, version).Mount(router)

	httpServer := &http.Server{
		Addr:         config.Server.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Infof("listening on %s", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
