// Package esi is a small client for the EVE Swagger Interface endpoints the
// title sync needs. Calls are conditional: the caller passes the ETag of the
// last response it applied, and an unchanged resource comes back as
// ErrNotModified instead of a payload. The client keeps no ETag state.
package esi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public ESI endpoint.
	DefaultBaseURL = "https://esi.evetech.net"

	// DefaultCompatibilityDate pins the ESI schema revision the client decodes.
	DefaultCompatibilityDate = "2025-11-28"

	// DefaultUserAgent identifies the application to CCP.
	DefaultUserAgent = "unistudent/1.0"

	// MaxResponseSize bounds how much of a response body is read (8MB).
	MaxResponseSize = 8 * 1024 * 1024

	// ScopeReadTitles is required by both title endpoints.
	ScopeReadTitles = "esi-corporations.read_titles.v1"

	opCorporationTitles = "corporation_titles"
	opMemberTitles      = "member_titles"
)

// Title is one entry of GET /corporations/{id}/titles/.
type Title struct {
	TitleID int64  `json:"title_id"`
	Name    string `json:"name"`
}

// MemberTitles is one entry of GET /corporations/{id}/members/titles/.
type MemberTitles struct {
	CharacterID int64   `json:"character_id"`
	Titles      []int64 `json:"titles"`
}

// Config configures a Client. Zero values select the defaults.
type Config struct {
	BaseURL           string
	CompatibilityDate string
	UserAgent         string

	// RateLimit is requests per second across all calls; 0 disables limiting.
	RateLimit float64
	Burst     int

	// Timeout bounds each call including the wait on the limiter. Zero
	// uses timeouts.Remote() at call time.
	Timeout time.Duration

	HTTPClient *http.Client
	Metrics    *Metrics
}

// Client calls ESI on behalf of a character token.
type Client struct {
	http    *http.Client
	base    string
	compat  string
	ua      string
	timeout time.Duration
	limiter *rate.Limiter
	metrics *Metrics
	log     *zap.Logger
}

// New builds a Client from cfg.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CompatibilityDate == "" {
		cfg.CompatibilityDate = DefaultCompatibilityDate
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var lim *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		http:    cfg.HTTPClient,
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		compat:  cfg.CompatibilityDate,
		ua:      cfg.UserAgent,
		timeout: cfg.Timeout,
		limiter: lim,
		metrics: cfg.Metrics,
		log:     logger,
	}
}

// CorporationTitles lists the titles defined by a corporation. etag is the
// validator of the last applied response, empty for an unconditional fetch;
// the returned tag belongs to this response.
func (c *Client) CorporationTitles(ctx context.Context, corporationID int64, tok *oauth2.Token, etag string) ([]Title, string, error) {
	var out []Title
	path := fmt.Sprintf("/corporations/%d/titles/", corporationID)
	tag, err := c.get(ctx, opCorporationTitles, path, tok, etag, &out)
	if err != nil {
		return nil, "", err
	}
	return out, tag, nil
}

// MemberTitles lists, per member character, the titles it holds. etag works
// as for CorporationTitles.
func (c *Client) MemberTitles(ctx context.Context, corporationID int64, tok *oauth2.Token, etag string) ([]MemberTitles, string, error) {
	var out []MemberTitles
	path := fmt.Sprintf("/corporations/%d/members/titles/", corporationID)
	tag, err := c.get(ctx, opMemberTitles, path, tok, etag, &out)
	if err != nil {
		return nil, "", err
	}
	return out, tag, nil
}

// get fetches path into out and returns the response ETag.
func (c *Client) get(ctx context.Context, op, path string, tok *oauth2.Token, etag string, out any) (tag string, err error) {
	if tok == nil || tok.AccessToken == "" {
		return "", errors.New("esi: missing access token")
	}
	timeout := c.timeout
	if timeout <= 0 {
		timeout = timeouts.Remote()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		c.metrics.observe(op, outcome(err), time.Since(start))
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("esi: rate limiter: %w", err)
		}
	}

	url := c.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("esi: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("X-Compatibility-Date", c.compat)
	tok.SetAuthHeader(req)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("esi: %s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotModified {
		return "", ErrNotModified
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return "", fmt.Errorf("esi: failed to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return "", fmt.Errorf("esi: response exceeds %d bytes", MaxResponseSize)
	}

	if resp.StatusCode != http.StatusOK {
		return "", newStatusError(resp.StatusCode, url, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return "", fmt.Errorf("esi: decode %s: %w", op, err)
	}

	c.log.Debug("esi request",
		zap.String("operation", op),
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Header.Get("ETag"), nil
}
