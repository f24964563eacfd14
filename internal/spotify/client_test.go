package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, tokenURL, apiURL string) *Client {
	t.Helper()

	client, err := NewClient(Config{
		ClientID:    "test_client_id",
		RedirectURI: "http://127.0.0.1:5500/callback.html",
		TokenURL:    tokenURL,
		APIBaseURL:  apiURL,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return client
}

func TestNewClient(t *testing.T) {
	t.Run("Missing Client ID", func(t *testing.T) {
		_, err := NewClient(Config{RedirectURI: "http://localhost/cb"})
		if err == nil {
			t.Error("expected error for missing client id")
		}
	})

	t.Run("Missing Redirect URI", func(t *testing.T) {
		_, err := NewClient(Config{ClientID: "abc"})
		if err == nil {
			t.Error("expected error for missing redirect URI")
		}
	})

	t.Run("Defaults Endpoints", func(t *testing.T) {
		client, err := NewClient(Config{ClientID: "abc", RedirectURI: "http://localhost/cb"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if client.config.TokenURL != defaultTokenURL {
			t.Errorf("expected default token URL, got %s", client.config.TokenURL)
		}
		if client.config.APIBaseURL != defaultAPIBaseURL {
			t.Errorf("expected default API base URL, got %s", client.config.APIBaseURL)
		}
	})
}

func TestExchangeCode(t *testing.T) {
	t.Run("Sends Authorization Code Grant", func(t *testing.T) {
		var form map[string]string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
				t.Errorf("expected form content type, got %s", ct)
			}
			r.ParseForm()
			form = map[string]string{
				"client_id":     r.PostForm.Get("client_id"),
				"grant_type":    r.PostForm.Get("grant_type"),
				"code":          r.PostForm.Get("code"),
				"redirect_uri":  r.PostForm.Get("redirect_uri"),
				"code_verifier": r.PostForm.Get("code_verifier"),
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"AT1","refresh_token":"RT1","expires_in":3600,"token_type":"Bearer","scope":"user-read-currently-playing"}`))
		}))
		defer srv.Close()

		client := testClient(t, srv.URL, "")
		token, err := client.ExchangeCode(context.Background(), "abcdefghij", "verifier")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if form["grant_type"] != "authorization_code" {
			t.Errorf("expected authorization_code grant, got %s", form["grant_type"])
		}
		if form["code"] != "abcdefghij" || form["code_verifier"] != "verifier" {
			t.Error("expected code and verifier in form")
		}
		if form["client_id"] != "test_client_id" {
			t.Errorf("expected configured client_id, got %s", form["client_id"])
		}
		if form["redirect_uri"] != "http://127.0.0.1:5500/callback.html" {
			t.Errorf("expected configured redirect_uri, got %s", form["redirect_uri"])
		}

		if token.AccessToken != "AT1" || token.RefreshToken != "RT1" || token.ExpiresIn != 3600 {
			t.Errorf("unexpected token response: %+v", token)
		}
		if token.Failed() {
			t.Error("expected successful token response")
		}
	})

	t.Run("Provider Rejection Is Not A Transport Error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`))
		}))
		defer srv.Close()

		client := testClient(t, srv.URL, "")
		token, err := client.ExchangeCode(context.Background(), "abcdefghij", "verifier")
		if err != nil {
			t.Fatalf("expected no transport error, got %v", err)
		}

		if !token.Failed() {
			t.Error("expected token response to carry provider error")
		}
		if token.Err != "invalid_grant" {
			t.Errorf("expected invalid_grant, got %s", token.Err)
		}
	})

	t.Run("Unreachable Server", func(t *testing.T) {
		client := testClient(t, "http://127.0.0.1:1", "")
		if _, err := client.ExchangeCode(context.Background(), "abcdefghij", "verifier"); err == nil {
			t.Error("expected transport error")
		}
	})
}

func TestRefresh(t *testing.T) {
	t.Run("Sends Refresh Grant", func(t *testing.T) {
		var form map[string]string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			form = map[string]string{
				"grant_type":    r.PostForm.Get("grant_type"),
				"refresh_token": r.PostForm.Get("refresh_token"),
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"AT2","expires_in":3600,"token_type":"Bearer","scope":"user-read-currently-playing"}`))
		}))
		defer srv.Close()

		client := testClient(t, srv.URL, "")
		token, err := client.Refresh(context.Background(), "RT1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if form["grant_type"] != "refresh_token" || form["refresh_token"] != "RT1" {
			t.Errorf("unexpected form values: %+v", form)
		}

		if token.RefreshToken != "" {
			t.Error("expected empty refresh token when provider does not rotate")
		}
		if token.AccessToken != "AT2" {
			t.Errorf("expected AT2, got %s", token.AccessToken)
		}
	})
}

func TestProfile(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me" {
				t.Errorf("expected /me, got %s", r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer AT1" {
				t.Errorf("expected bearer header, got %s", auth)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"user42","display_name":"User"}`))
		}))
		defer srv.Close()

		client := testClient(t, "", srv.URL)
		profile, err := client.Profile(context.Background(), "AT1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if profile.ID != "user42" {
			t.Errorf("expected id user42, got %s", profile.ID)
		}
	})

	t.Run("Unauthorized", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"status":401,"message":"Invalid access token"}}`))
		}))
		defer srv.Close()

		client := testClient(t, "", srv.URL)
		_, err := client.Profile(context.Background(), "bad")

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", apiErr.Status)
		}
	})
}

func TestCurrentlyPlaying(t *testing.T) {
	t.Run("Nothing Playing", func(t *testing.T) {
		for _, status := range []int{http.StatusNoContent, http.StatusAccepted} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))

			client := testClient(t, "", srv.URL)
			snapshot, err := client.CurrentlyPlaying(context.Background(), "AT1")
			srv.Close()

			if err != nil {
				t.Fatalf("status %d: expected no error, got %v", status, err)
			}
			if snapshot.IsPlaying || snapshot.Track != nil {
				t.Errorf("status %d: expected empty snapshot, got %+v", status, snapshot)
			}
		}
	})

	t.Run("Maps Track Snapshot", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/player/currently-playing" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"is_playing": true,
				"progress_ms": 12345,
				"item": {
					"name": "Song",
					"artists": [{"name": "First"}, {"name": "Second"}],
					"album": {"name": "Album", "images": [{"url": "https://img/1"}, {"url": "https://img/2"}]},
					"external_urls": {"spotify": "https://open.spotify.com/track/x"},
					"duration_ms": 200000
				}
			}`))
		}))
		defer srv.Close()

		client := testClient(t, "", srv.URL)
		snapshot, err := client.CurrentlyPlaying(context.Background(), "AT1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !snapshot.IsPlaying {
			t.Error("expected isPlaying true")
		}
		if snapshot.Track == nil {
			t.Fatal("expected track in snapshot")
		}
		if snapshot.Track.Artist != "First, Second" {
			t.Errorf("expected comma-joined artists, got %s", snapshot.Track.Artist)
		}
		if snapshot.Track.Image != "https://img/1" {
			t.Errorf("expected first album image, got %s", snapshot.Track.Image)
		}
		if snapshot.Track.ProgressMS != 12345 || snapshot.Track.DurationMS != 200000 {
			t.Errorf("unexpected progress/duration: %+v", snapshot.Track)
		}
		if snapshot.Track.ExternalURL != "https://open.spotify.com/track/x" {
			t.Errorf("unexpected external url: %s", snapshot.Track.ExternalURL)
		}
	})

	t.Run("Missing Album Image", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"is_playing": true, "item": {"name": "Song", "artists": [{"name": "A"}], "album": {"name": "Album", "images": []}, "external_urls": {"spotify": "u"}, "duration_ms": 1000}}`))
		}))
		defer srv.Close()

		client := testClient(t, "", srv.URL)
		snapshot, err := client.CurrentlyPlaying(context.Background(), "AT1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if snapshot.Track.Image != "" {
			t.Errorf("expected empty image, got %s", snapshot.Track.Image)
		}
	})

	t.Run("Playing Without Item", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"is_playing": false, "item": null}`))
		}))
		defer srv.Close()

		client := testClient(t, "", srv.URL)
		snapshot, err := client.CurrentlyPlaying(context.Background(), "AT1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if snapshot.Track != nil {
			t.Error("expected nil track for null item")
		}
	})

	t.Run("Error With JSON Body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
		}))
		defer srv.Close()

		client := testClient(t, "", srv.URL)
		_, err := client.CurrentlyPlaying(context.Background(), "expired")

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", apiErr.Status)
		}
		if apiErr.Message != "The access token expired" {
			t.Errorf("expected upstream message, got %s", apiErr.Message)
		}
	})

	t.Run("Error With Non-JSON Body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer srv.Close()

		client := testClient(t, "", srv.URL)
		_, err := client.CurrentlyPlaying(context.Background(), "AT1")

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", apiErr.Status)
		}
		if apiErr.Message != "failed to fetch currently playing" {
			t.Errorf("expected fallback message, got %s", apiErr.Message)
		}
	})
}
