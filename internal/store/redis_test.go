package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Connection Failure", func(t *testing.T) {
		if _, err := NewRedisStore(ctx, "127.0.0.1:1", "", 0); err == nil {
			t.Error("expected error for unreachable redis")
		}
	})

	t.Run("Get Missing User", func(t *testing.T) {
		s := newTestRedisStore(t)

		_, err := s.Get(ctx, "nobody")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Put Then Get", func(t *testing.T) {
		s := newTestRedisStore(t)

		if err := s.Put(ctx, "user42", "RT1"); err != nil {
			t.Fatalf("failed to put: %v", err)
		}

		token, err := s.Get(ctx, "user42")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if token != "RT1" {
			t.Errorf("expected RT1, got %s", token)
		}
	})

	t.Run("Put Replaces Existing", func(t *testing.T) {
		s := newTestRedisStore(t)

		if err := s.Put(ctx, "user42", "RT1"); err != nil {
			t.Fatal(err)
		}
		if err := s.Put(ctx, "user42", "RT2"); err != nil {
			t.Fatal(err)
		}

		token, err := s.Get(ctx, "user42")
		if err != nil {
			t.Fatal(err)
		}
		if token != "RT2" {
			t.Errorf("expected rotated token RT2, got %s", token)
		}
	})

	t.Run("Keys Are Prefixed", func(t *testing.T) {
		mr := miniredis.RunT(t)

		s, err := NewRedisStore(ctx, mr.Addr(), "", 0)
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()

		if err := s.Put(ctx, "user42", "RT1"); err != nil {
			t.Fatal(err)
		}

		if _, err := mr.Get("refresh_token:user42"); err != nil {
			t.Errorf("expected prefixed key in redis: %v", err)
		}
	})
}
