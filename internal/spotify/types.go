package spotify

import "fmt"

// TokenResponse is the decoded body of Spotify's token endpoint, for both the
// authorization_code and refresh_token grants. The client decodes it whatever
// the HTTP status; Err is populated from the provider's error field and it is
// the caller's job to interpret it.
type TokenResponse struct {
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	ExpiresIn      int    `json:"expires_in"`
	TokenType      string `json:"token_type"`
	Scope          string `json:"scope"`
	Err            string `json:"error"`
	ErrDescription string `json:"error_description"`
}

// Failed reports whether the provider rejected the grant.
func (t *TokenResponse) Failed() bool {
	return t.Err != ""
}

// Profile represents the subset of the Spotify user profile the proxy needs.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// playbackState mirrors Spotify's /me/player/currently-playing response.
type playbackState struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Item       *playbackItem `json:"item"`
}

type playbackItem struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string  `json:"name"`
		Images []Image `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	DurationMS int `json:"duration_ms"`
}

// Track is the simplified track snapshot returned to the widget.
type Track struct {
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Image       string `json:"image,omitempty"`
	ExternalURL string `json:"external_url"`
	DurationMS  int    `json:"duration_ms"`
	ProgressMS  int    `json:"progress_ms"`
}

// NowPlaying is a point-in-time snapshot of the user's playback state.
// Track is nil when nothing is playing.
type NowPlaying struct {
	IsPlaying bool   `json:"isPlaying"`
	Track     *Track `json:"track"`
}

// APIError is returned by Client.CurrentlyPlaying for non-2xx responses,
// carrying the upstream status so callers can branch on expired tokens.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

// spotifyError mirrors Spotify's regular error body {"error":{"status","message"}}.
type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
