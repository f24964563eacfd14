package server

import (
	"fmt"
	"net/http"
	"strings"
)

// PKCE verifiers are 43 to 128 characters per RFC 7636; anything shorter
// never came from a conforming client.
const minVerifierLength = 43

// Authorization codes have no documented minimum, but real Spotify codes are
// long; a handful of characters is certainly garbage.
const minCodeLength = 10

// ValidationError describes a rejected request input. Code is the
// machine-readable value surfaced in the error envelope.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AuthRequest is the validated body of POST /auth.
type AuthRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
}

// RefreshRequest is the validated body of POST /refresh.
type RefreshRequest struct {
	UserID string `json:"user_id"`
}

// NowPlayingRequest is the validated body of POST /currently-playing.
type NowPlayingRequest struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// ValidateContentType checks that the request declares a JSON body.
func ValidateContentType(r *http.Request) *ValidationError {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return &ValidationError{Code: "INVALID_CONTENT_TYPE", Message: "Content-Type must be application/json"}
	}
	return nil
}

// ValidateAuthRequest checks the authorization code and PKCE verifier.
// First failure wins.
func ValidateAuthRequest(body AuthRequest) (AuthRequest, *ValidationError) {
	if len(body.Code) < minCodeLength {
		return AuthRequest{}, &ValidationError{Code: "INVALID_CODE", Message: "Invalid authorization code"}
	}

	if len(body.CodeVerifier) < minVerifierLength {
		return AuthRequest{}, &ValidationError{Code: "INVALID_CODE_VERIFIER", Message: "Invalid code verifier"}
	}

	return body, nil
}

// ValidateRefreshRequest checks and trims the user id.
func ValidateRefreshRequest(body RefreshRequest) (RefreshRequest, *ValidationError) {
	userID := strings.TrimSpace(body.UserID)
	if userID == "" {
		return RefreshRequest{}, &ValidationError{Code: "INVALID_USER_ID", Message: "Invalid user_id provided"}
	}

	return RefreshRequest{UserID: userID}, nil
}

// ValidateNowPlayingRequest checks and trims the access token and user id.
func ValidateNowPlayingRequest(body NowPlayingRequest) (NowPlayingRequest, *ValidationError) {
	accessToken := strings.TrimSpace(body.AccessToken)
	if accessToken == "" {
		return NowPlayingRequest{}, &ValidationError{Code: "INVALID_ACCESS_TOKEN", Message: "Invalid access_token provided"}
	}

	userID := strings.TrimSpace(body.UserID)
	if userID == "" {
		return NowPlayingRequest{}, &ValidationError{Code: "INVALID_USER_ID", Message: "Invalid user_id provided"}
	}

	return NowPlayingRequest{AccessToken: accessToken, UserID: userID}, nil
}
