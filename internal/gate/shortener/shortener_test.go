package shortener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const longURL = "https://gate.example/watch?data=abc123"

func TestShortenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("api"))
		require.Equal(t, longURL, r.URL.Query().Get("url"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","shortenedUrl":"https://short.example/xyz"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "test-key", time.Second)
	require.True(t, c.Enabled())

	got := c.Shorten(context.Background(), longURL)
	require.Equal(t, "https://short.example/xyz", got)
}

func TestShortenDisabledWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "", time.Second)
	require.False(t, c.Enabled())

	got := c.Shorten(context.Background(), longURL)
	require.Equal(t, longURL, got, "disabled client should pass the URL through")
	require.False(t, called, "disabled client should not call the API")
}

func TestShortenFallsBackOnFailure(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		t.Cleanup(srv.Close)

		c := New(srv.URL, "test-key", time.Second)
		require.Equal(t, longURL, c.Shorten(context.Background(), longURL))
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		}))
		t.Cleanup(srv.Close)

		c := New(srv.URL, "test-key", time.Second)
		require.Equal(t, longURL, c.Shorten(context.Background(), longURL))
	})

	t.Run("empty shortenedUrl", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"error","shortenedUrl":""}`))
		}))
		t.Cleanup(srv.Close)

		c := New(srv.URL, "test-key", time.Second)
		require.Equal(t, longURL, c.Shorten(context.Background(), longURL))
	})

	t.Run("unreachable server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		c := New(srv.URL, "test-key", time.Second)
		require.Equal(t, longURL, c.Shorten(context.Background(), longURL))
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		t.Cleanup(func() {
			close(release)
			srv.Close()
		})

		c := New(srv.URL, "test-key", 50*time.Millisecond)
		require.Equal(t, longURL, c.Shorten(context.Background(), longURL))
	})
}

func TestNewDefaults(t *testing.T) {
	c := New("", "key", 0)
	require.Equal(t, DefaultAPIURL, c.APIURL)
	require.Equal(t, 10*time.Second, c.HTTPClient.Timeout)
}
