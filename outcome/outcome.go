// Package outcome talks to the service that decides spin results. The
// kiosk never picks a prize itself; it only shows what this service says.
package outcome

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrNotConfigured is returned when no service URL is configured.
	ErrNotConfigured = errors.New("outcome: service url not configured")

	// ErrNotEligible is returned when the service refuses the customer
	// (no credits left, already played, unknown card).
	ErrNotEligible = errors.New("outcome: customer not eligible")

	// ErrRateLimited is returned when the kiosk itself throttles requests.
	ErrRateLimited = errors.New("outcome: too many spin requests")
)

// Config holds outcome service settings.
type Config struct {
	URL       string        `yaml:"url"`
	CAFile    string        `yaml:"ca_file"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	Timeout   time.Duration `yaml:"timeout"`    // default 10s
	RateLimit float64       `yaml:"rate_limit"` // requests per second, default 1
	Burst     int           `yaml:"burst"`      // default 2
}

// Result is the outcome of one spin.
type Result struct {
	SegmentIndex int       `json:"segment_index"`
	Amount       float64   `json:"amount"`
	Barcode      string    `json:"barcode"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Request asks the service for a spin.
type Request struct {
	KioskID         string `json:"kiosk_id"`
	Customer        string `json:"customer,omitempty"`
	Source          string `json:"source"`
	CampaignVersion int64  `json:"campaign_version"`
}

// Client calls the outcome service.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// New creates an outcome client. An empty URL gives a client whose Spin
// always fails with ErrNotConfigured.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(caCert)
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Transport: transport, Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
	}, nil
}

// Spin requests a spin outcome.
func (c *Client) Spin(ctx context.Context, req Request) (Result, error) {
	if c.cfg.URL == "" {
		return Result{}, ErrNotConfigured
	}
	if !c.limiter.Allow() {
		return Result{}, ErrRateLimited
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/kiosks/%s/spins", c.cfg.URL, req.KioskID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.Username != "" {
		httpReq.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusConflict:
		return Result{}, fmt.Errorf("%w: %s", ErrNotEligible, bytes.TrimSpace(data))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Result{}, fmt.Errorf("spin request: unexpected status %s", resp.Status)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("decode JSON: %w", err)
	}
	return res, nil
}
