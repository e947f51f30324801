// Package quote fetches a short motivational line from a public quote API.
// Fetch never fails: network, status and decode errors all resolve to the
// configured fallback text.
package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultURL      = "https://api.quotable.io/random?tags=motivational|inspirational"
	DefaultFallback = "Keep pushing forward!"
	DefaultTimeout  = 5 * time.Second

	maxBodyBytes = 64 << 10
)

var errEmptyQuote = errors.New("response has no quote content")

// Config controls the client.
type Config struct {
	URL      string
	Fallback string
	Timeout  time.Duration
}

// Client requests quotes. A nil *Client is valid and always returns the
// default fallback.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// New creates a client, filling zero config values with defaults.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Fallback == "" {
		cfg.Fallback = DefaultFallback
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Result is a fetched quote. Fallback is true when the text is the static
// fallback rather than a fetched quote.
type Result struct {
	Text     string
	Author   string
	Fallback bool
}

// Fetch returns a quote, or the fallback on any failure including ctx
// cancellation. The request is bounded by the configured timeout.
func (c *Client) Fetch(ctx context.Context) Result {
	if c == nil {
		return Result{Text: DefaultFallback, Fallback: true}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := fetchQuoteJSON(ctx, c.http, c.cfg.URL)
	if err != nil {
		c.logger.Debug().Err(err).Msg("quote: fetch failed, using fallback")
		return c.fallback()
	}

	res, err := decode(body)
	if err != nil {
		c.logger.Debug().Err(err).Msg("quote: decode failed, using fallback")
		return c.fallback()
	}
	return res
}

func (c *Client) fallback() Result {
	return Result{Text: c.cfg.Fallback, Fallback: true}
}

// fetchQuoteJSON is swapped out in tests.
var fetchQuoteJSON = func(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "taskdeck")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request quote: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request quote: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read quote body: %w", err)
	}
	return body, nil
}

type payload struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

// decode accepts a single {"content": ...} object or an array whose first
// element is one.
func decode(body []byte) (Result, error) {
	body = bytes.TrimSpace(body)

	var p payload
	if len(body) > 0 && body[0] == '[' {
		var list []payload
		if err := json.Unmarshal(body, &list); err != nil {
			return Result{}, fmt.Errorf("decode quote list: %w", err)
		}
		if len(list) == 0 {
			return Result{}, errEmptyQuote
		}
		p = list[0]
	} else if err := json.Unmarshal(body, &p); err != nil {
		return Result{}, fmt.Errorf("decode quote: %w", err)
	}

	text := strings.TrimSpace(p.Content)
	if text == "" {
		return Result{}, errEmptyQuote
	}
	return Result{Text: text, Author: strings.TrimSpace(p.Author)}, nil
}
