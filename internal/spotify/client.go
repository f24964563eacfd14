// Package spotify is a thin client for the Spotify accounts and Web API
// endpoints the widget proxy needs.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTokenURL   = "https://accounts.spotify.com/api/token"
	defaultAPIBaseURL = "https://api.spotify.com/v1"

	// Outbound calls are bounded so a hung upstream can't pin a request.
	defaultTimeout = 5 * time.Second
)

// Config holds the Spotify application settings the client needs. TokenURL
// and APIBaseURL default to Spotify's production endpoints and exist so
// tests can point the client at a local server.
type Config struct {
	ClientID    string
	RedirectURI string
	TokenURL    string
	APIBaseURL  string
}

// Client performs the outbound Spotify calls. It is a transport wrapper for
// the token endpoints: grant rejections come back inside [TokenResponse],
// not as errors. The playback endpoint is normalized.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a Spotify client from the given config.
func NewClient(config Config) (*Client, error) {
	if config.ClientID == "" {
		return nil, fmt.Errorf("missing client id")
	}
	if config.RedirectURI == "" {
		return nil, fmt.Errorf("missing redirect URI")
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// ExchangeCode exchanges an authorization code and PKCE verifier for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.config.ClientID},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.config.RedirectURI},
		"code_verifier": {verifier},
	}

	return c.postToken(ctx, form)
}

// Refresh exchanges a refresh token for a new access token. Spotify may
// rotate the refresh token; an empty RefreshToken in the response means the
// one sent is still valid.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.config.ClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	return c.postToken(ctx, form)
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &token, nil
}

// Profile retrieves the profile of the user the access token belongs to.
func (c *Client) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIBaseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp, "failed to fetch user profile")}
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}

	return &profile, nil
}

// CurrentlyPlaying fetches the user's playback state.
//
// 204 and 202 mean nothing is playing and map to an empty snapshot, not an
// error. Other non-2xx statuses return an [*APIError] carrying the upstream
// status code.
func (c *Client) CurrentlyPlaying(ctx context.Context, accessToken string) (*NowPlaying, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIBaseURL+"/me/player/currently-playing", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("playback request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusAccepted {
		return &NowPlaying{IsPlaying: false, Track: nil}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp, "failed to fetch currently playing")}
	}

	var state playbackState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode playback response: %w", err)
	}

	return newSnapshot(state), nil
}

// newSnapshot maps Spotify's playback state onto the widget's track snapshot.
func newSnapshot(state playbackState) *NowPlaying {
	snapshot := &NowPlaying{IsPlaying: state.IsPlaying}
	if state.Item == nil {
		return snapshot
	}

	names := make([]string, 0, len(state.Item.Artists))
	for _, artist := range state.Item.Artists {
		names = append(names, artist.Name)
	}

	track := &Track{
		Name:        state.Item.Name,
		Artist:      strings.Join(names, ", "),
		Album:       state.Item.Album.Name,
		ExternalURL: state.Item.ExternalURLs.Spotify,
		DurationMS:  state.Item.DurationMS,
		ProgressMS:  state.ProgressMS,
	}
	if len(state.Item.Album.Images) > 0 {
		track.Image = state.Item.Album.Images[0].URL
	}

	snapshot.Track = track
	return snapshot
}

// readErrorMessage extracts the message from a Spotify error body. A body
// that isn't the expected JSON shape must not fail the call, so it falls
// back to the provided generic message.
func readErrorMessage(resp *http.Response, fallback string) string {
	var body spotifyError
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Message == "" {
		return fallback
	}
	return body.Error.Message
}
