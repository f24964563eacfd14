package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/soundcase/widgetapi/internal/server"
	"github.com/soundcase/widgetapi/internal/shared"
	"github.com/soundcase/widgetapi/internal/spotify"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	loginTimeout = 5 * time.Minute
)

// Login walks an operator through the PKCE authorization flow in a browser
// and stores the resulting refresh token, seeding the store exactly as a
// widget /auth call would.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientID == "your_spotify_client_id" {
		return fmt.Errorf("%w: spotify client_id must be set in config.toml", shared.ErrInvalidConfig)
	}

	oauthConfig := &oauth2.Config{
		ClientID:    config.Credentials.Spotify.ClientID,
		RedirectURL: cmd.String("redirect"),
		Scopes:      []string{"user-read-private", "user-read-currently-playing", "user-read-playback-state"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	state := uuid.New().String()
	verifier := oauth2.GenerateVerifier()
	authURL := oauthConfig.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	handler := server.NewOAuthHandler(oauthConfig, state, verifier)

	router := server.NewBasicRouter()
	router.Handler(handler)

	callbackServer := &http.Server{Addr: cmd.String("listen"), Handler: router}
	go func() {
		if err := callbackServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Errorf("callback server error: %v", err)
		}
	}()
	defer callbackServer.Close()

	r.writePlain("Open this URL in your browser to authorize:\n\n%s\n\n", authURL)
	r.logger.Info("waiting for authorization callback", "listen", cmd.String("listen"))

	var token *oauth2.Token
	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return result.Error()
		}
		token = result.Token
	case <-time.After(loginTimeout):
		return fmt.Errorf("timed out waiting for authorization")
	case <-ctx.Done():
		return ctx.Err()
	}

	if token.RefreshToken == "" {
		return fmt.Errorf("%w: provider returned no refresh token", shared.ErrTokenExchange)
	}

	client, err := spotify.NewClient(spotify.Config{
		ClientID:    config.Credentials.Spotify.ClientID,
		RedirectURI: oauthConfig.RedirectURL,
	})
	if err != nil {
		return err
	}

	profile, err := client.Profile(ctx, token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to resolve user profile: %w", err)
	}
	if profile.ID == "" {
		return fmt.Errorf("%w: profile response missing user id", shared.ErrAPIRequest)
	}

	tokens, closeStore, err := r.openStore(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer closeStore()

	if err := tokens.Put(ctx, profile.ID, token.RefreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	r.writePlain("✓ Authorization successful\n")
	r.writePlain("✓ Stored refresh token for user %s\n", profile.ID)

	return nil
}
