// Package server is the HTTP surface of the widget token proxy.
//
// # Endpoints
//
// Three POST endpoints back the browser widget:
//
//   - /auth exchanges an authorization code plus PKCE verifier for tokens,
//     resolves the Spotify user id, and persists the refresh token.
//   - /refresh exchanges the stored refresh token for a new access token,
//     rotating the stored value when Spotify issues a replacement.
//   - /currently-playing fetches the playback state; on a 401 it refreshes
//     the access token server-side and retries exactly once, returning the
//     new access token alongside the track snapshot.
//
// GET / returns API info and GET /health reports liveness.
//
// Every response uses the envelope {success:true, ...} or
// {success:false, error, code}, with HTTP statuses fixed per error code.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The stack is CORS, request logging,
// rate limiting, and panic recovery.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with
// method filtering; OPTIONS passes through so CORS can answer preflights.
//
// # Validation
//
// Input checks live in validation.go and return a typed [*ValidationError]
// carrying the machine-readable code for the envelope. Handlers reject bad
// input before any outbound call is made.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the local callback used by the login command to
// seed the token store from a terminal. It validates the state parameter,
// exchanges the code with the PKCE verifier, and delivers the result
// through a channel. It only processes one callback.
package server
