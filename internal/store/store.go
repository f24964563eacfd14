// package store persists the long-lived refresh credential for each user.
//
// The access token is never stored; only the refresh token survives between
// requests, keyed by the Spotify user id. At most one value exists per user
// and a newer token always replaces the old one.
package store

import (
	"context"
	"fmt"
)

// ErrNotFound is returned by Get when no refresh token is stored for a user.
var ErrNotFound = fmt.Errorf("refresh token not found")

// TokenStore is a durable user id to refresh token mapping. Writes are
// expected to be visible to subsequent reads for the same key. Concurrent
// writes for the same user are last-write-wins; no compare-and-swap is
// attempted.
type TokenStore interface {
	// Get returns the stored refresh token for userID, or [ErrNotFound].
	Get(ctx context.Context, userID string) (string, error)

	// Put stores refreshToken under userID, replacing any previous value.
	Put(ctx context.Context, userID, refreshToken string) error
}
