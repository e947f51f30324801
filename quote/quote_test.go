package quote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withStubbedFetch(t *testing.T, body []byte, err error) *int {
	t.Helper()
	calls := 0
	prev := fetchQuoteJSON
	fetchQuoteJSON = func(context.Context, *http.Client, string) ([]byte, error) {
		calls++
		return body, err
	}
	t.Cleanup(func() {
		fetchQuoteJSON = prev
	})
	return &calls
}

func TestFetch_Object(t *testing.T) {
	calls := withStubbedFetch(t, []byte(`{"content":"Stay hungry.","author":"Someone"}`), nil)

	res := New(Config{}, zerolog.Nop()).Fetch(context.Background())
	assert.Equal(t, 1, *calls)
	assert.Equal(t, "Stay hungry.", res.Text)
	assert.Equal(t, "Someone", res.Author)
	assert.False(t, res.Fallback)
}

func TestFetch_Array(t *testing.T) {
	withStubbedFetch(t, []byte(` [{"content":"One step at a time."}]`), nil)

	res := New(Config{}, zerolog.Nop()).Fetch(context.Background())
	assert.Equal(t, "One step at a time.", res.Text)
	assert.False(t, res.Fallback)
}

func TestFetch_FallbackOnError(t *testing.T) {
	withStubbedFetch(t, nil, errors.New("network down"))

	res := New(Config{Fallback: "Onwards"}, zerolog.Nop()).Fetch(context.Background())
	assert.Equal(t, "Onwards", res.Text)
	assert.True(t, res.Fallback)
}

func TestFetch_FallbackOnBadPayload(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `[]`, `{"content":"   "}`} {
		withStubbedFetch(t, []byte(body), nil)
		res := New(Config{}, zerolog.Nop()).Fetch(context.Background())
		assert.True(t, res.Fallback, "body %q", body)
		assert.Equal(t, DefaultFallback, res.Text)
	}
}

func TestFetch_NilClient(t *testing.T) {
	var c *Client
	res := c.Fetch(context.Background())
	assert.True(t, res.Fallback)
	assert.Equal(t, DefaultFallback, res.Text)
}

func TestFetch_HTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "motivational", r.URL.Query().Get("tags"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":"Ship it."}`))
	}))
	t.Cleanup(srv.Close)

	res := New(Config{URL: srv.URL + "?tags=motivational"}, zerolog.Nop()).Fetch(context.Background())
	assert.Equal(t, "Ship it.", res.Text)
	assert.False(t, res.Fallback)
}

func TestFetch_HTTPStatusFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	res := New(Config{URL: srv.URL}, zerolog.Nop()).Fetch(context.Background())
	assert.True(t, res.Fallback)
}

func TestFetch_TimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	start := time.Now()
	res := New(Config{URL: srv.URL, Timeout: 50 * time.Millisecond}, zerolog.Nop()).Fetch(context.Background())
	require.True(t, res.Fallback)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetch_CancelledContextFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(Config{URL: srv.URL}, zerolog.Nop()).Fetch(ctx)
	assert.True(t, res.Fallback)
}
