package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/soundcase/widgetapi/internal/shared"
	"github.com/soundcase/widgetapi/internal/spotify"
	"github.com/soundcase/widgetapi/internal/store"
)

// Provider is the outbound Spotify surface the handlers need, implemented
// by [spotify.Client].
type Provider interface {
	ExchangeCode(ctx context.Context, code, verifier string) (*spotify.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*spotify.TokenResponse, error)
	Profile(ctx context.Context, accessToken string) (*spotify.Profile, error)
	CurrentlyPlaying(ctx context.Context, accessToken string) (*spotify.NowPlaying, error)
}

// API holds the three widget endpoints plus the info and health routes.
type API struct {
	provider Provider
	tokens   store.TokenStore
	logger   *log.Logger
	version  string
}

// NewAPI creates the endpoint set from its collaborators.
func NewAPI(provider Provider, tokens store.TokenStore, logger *log.Logger, version string) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &API{
		provider: provider,
		tokens:   tokens,
		logger:   logger,
		version:  version,
	}
}

// Mount registers all endpoints on the router.
func (a *API) Mount(router Router) {
	router.Handle(http.MethodPost, "/auth", http.HandlerFunc(a.Auth))
	router.Handle(http.MethodPost, "/refresh", http.HandlerFunc(a.RefreshToken))
	router.Handle(http.MethodPost, "/currently-playing", http.HandlerFunc(a.NowPlaying))
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(a.Health))
	router.Handle(http.MethodGet, "/", http.HandlerFunc(a.Root))
}

// decodeBody parses a JSON request body, mapping undecodable input to a
// validation failure rather than an internal error.
func decodeBody(r *http.Request, dst any) *ValidationError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ValidationError{Code: "INVALID_JSON", Message: "Request body must be valid JSON"}
	}
	return nil
}

// Auth exchanges an authorization code for tokens, resolves the user id,
// and persists the refresh token. The refresh token never leaves the
// server; the widget only receives the short-lived access token.
func (a *API) Auth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if verr := ValidateContentType(r); verr != nil {
		writeValidationError(w, verr)
		return
	}

	var body AuthRequest
	if verr := decodeBody(r, &body); verr != nil {
		writeValidationError(w, verr)
		return
	}

	req, verr := ValidateAuthRequest(body)
	if verr != nil {
		writeValidationError(w, verr)
		return
	}

	token, err := a.provider.ExchangeCode(ctx, req.Code, req.CodeVerifier)
	if err != nil {
		a.logger.Error("code exchange transport failure", "error", err)
		writeError(w, http.StatusBadRequest, "Authentication failed", "SPOTIFY_API_ERROR")
		return
	}

	if token.Failed() || token.AccessToken == "" || token.RefreshToken == "" {
		a.logger.Warn("code exchange rejected", "provider_error", token.Err)
		writeError(w, http.StatusUnauthorized, "Authentication failed", "TOKEN_EXCHANGE_ERROR")
		return
	}

	profile, err := a.provider.Profile(ctx, token.AccessToken)
	if err != nil {
		var apiErr *spotify.APIError
		if errors.As(err, &apiErr) {
			a.logger.Warn("profile fetch rejected", "status", apiErr.Status)
			writeError(w, http.StatusUnauthorized, "Failed to get user profile", "USER_PROFILE_ERROR")
			return
		}

		a.logger.Error("profile fetch transport failure", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to get user profile", "SPOTIFY_API_ERROR")
		return
	}

	// A 2xx profile without an id is the provider violating its own
	// contract, not an auth rejection.
	if profile.ID == "" {
		a.logger.Error("profile response missing user id")
		writeError(w, http.StatusBadGateway, "User ID not found in profile", "USER_ID_NOT_FOUND")
		return
	}

	if err := a.tokens.Put(ctx, profile.ID, token.RefreshToken); err != nil {
		a.logger.Error("failed to persist refresh token", "user_id", profile.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
		return
	}

	a.logger.Info("stored refresh token", "user_id", profile.ID)

	writeSuccess(w, http.StatusOK, map[string]any{
		"access_token": token.AccessToken,
		"user_id":      profile.ID,
		"expires_in":   token.ExpiresIn,
	})
}

// RefreshToken exchanges the stored refresh token for a new access token,
// rotating the stored value when Spotify issues a new one.
func (a *API) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if verr := ValidateContentType(r); verr != nil {
		writeValidationError(w, verr)
		return
	}

	var body RefreshRequest
	if verr := decodeBody(r, &body); verr != nil {
		writeValidationError(w, verr)
		return
	}

	req, verr := ValidateRefreshRequest(body)
	if verr != nil {
		writeValidationError(w, verr)
		return
	}

	refreshToken, err := a.tokens.Get(ctx, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		a.logger.Warn("refresh token not found", "user_id", req.UserID)
		writeError(w, http.StatusNotFound, "Refresh token not found", "TOKEN_NOT_FOUND")
		return
	}
	if err != nil {
		a.logger.Error("token store read failure", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
		return
	}

	token, err := a.refreshAndRotate(ctx, req.UserID, refreshToken)
	if err != nil {
		a.writeRefreshError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"access_token": token.AccessToken,
		"expires_in":   token.ExpiresIn,
		"token_type":   token.TokenType,
		"scope":        token.Scope,
	})
}

// NowPlaying fetches the user's playback state, transparently refreshing an
// expired access token and retrying exactly once.
func (a *API) NowPlaying(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if verr := ValidateContentType(r); verr != nil {
		writeValidationError(w, verr)
		return
	}

	var body NowPlayingRequest
	if verr := decodeBody(r, &body); verr != nil {
		writeValidationError(w, verr)
		return
	}

	req, verr := ValidateNowPlayingRequest(body)
	if verr != nil {
		writeValidationError(w, verr)
		return
	}

	snapshot, err := a.provider.CurrentlyPlaying(ctx, req.AccessToken)

	var apiErr *spotify.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		refreshToken, err := a.tokens.Get(ctx, req.UserID)
		if errors.Is(err, store.ErrNotFound) {
			a.logger.Warn("refresh token not found", "user_id", req.UserID)
			writeError(w, http.StatusNotFound, "Refresh token not found", "TOKEN_NOT_FOUND")
			return
		}
		if err != nil {
			a.logger.Error("token store read failure", "user_id", req.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
			return
		}

		token, err := a.refreshAndRotate(ctx, req.UserID, refreshToken)
		if err != nil {
			a.writeRefreshError(w, err)
			return
		}

		// One retry with the fresh token; a second failure of any kind is
		// reported, not retried again.
		snapshot, err = a.provider.CurrentlyPlaying(ctx, token.AccessToken)
		if err != nil {
			a.logger.Warn("playback fetch failed after refresh", "error", err)
			writeError(w, http.StatusBadRequest, "Error fetching currently playing track", "SPOTIFY_API_ERROR")
			return
		}

		// The refresh happened server-side, so the new access token rides
		// along for the widget to keep for subsequent calls.
		writeSuccess(w, http.StatusOK, map[string]any{
			"isPlaying":        snapshot.IsPlaying,
			"track":            snapshot.Track,
			"new_access_token": token.AccessToken,
			"expires_in":       token.ExpiresIn,
		})
		return
	}

	if err != nil {
		a.logger.Warn("playback fetch failed", "error", err)
		writeError(w, http.StatusBadRequest, "Error fetching currently playing track", "SPOTIFY_API_ERROR")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"isPlaying": snapshot.IsPlaying,
		"track":     snapshot.Track,
	})
}

// refreshAndRotate performs the refresh grant and overwrites the stored
// refresh token when the provider rotated it. Failures are classified by
// writeRefreshError.
func (a *API) refreshAndRotate(ctx context.Context, userID, refreshToken string) (*spotify.TokenResponse, error) {
	token, err := a.provider.Refresh(ctx, refreshToken)
	if err != nil {
		a.logger.Error("refresh transport failure", "user_id", userID, "error", err)
		return nil, shared.ErrAPIRequest
	}

	if token.Failed() || token.AccessToken == "" {
		a.logger.Warn("refresh rejected", "user_id", userID, "provider_error", token.Err)
		return nil, shared.ErrRefreshFailed
	}

	// An omitted refresh token means the one we sent is still valid.
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		if err := a.tokens.Put(ctx, userID, token.RefreshToken); err != nil {
			a.logger.Error("failed to rotate refresh token", "user_id", userID, "error", err)
			return nil, shared.ErrStoreUnavailable
		}
		a.logger.Info("rotated refresh token", "user_id", userID)
	}

	return token, nil
}

func (a *API) writeRefreshError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrStoreUnavailable) {
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
		return
	}

	writeError(w, http.StatusBadRequest, "Token refresh failed", "SPOTIFY_API_ERROR")
}

// Root describes the API for anyone poking at the base URL.
func (a *API) Root(w http.ResponseWriter, r *http.Request) {
	// ServeMux routes everything unmatched to "/"; answer those with the
	// JSON 404 the widget expects.
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Endpoint Not Found", "NOT_FOUND")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Spotify Widget API",
		"version":   a.version,
		"endpoints": []string{"/auth", "/refresh", "/currently-playing"},
	})
}

// Health reports liveness for monitors and load balancers.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
