// Package exchangerate fetches daily rate history from an exchangeratesapi.io
// style history endpoint.
package exchangerate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/aristath/ratecast/internal/domain"
)

// DefaultBaseURL is the public history endpoint.
const DefaultBaseURL = "https://api.exchangeratesapi.io/history"

// maxBodyBytes caps the response size read from the API.
const maxBodyBytes = 32 << 20

// Config holds client settings
type Config struct {
	BaseURL        string
	BaseCurrency   domain.Currency
	Symbols        []domain.Currency
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	BreakerTimeout time.Duration
}

// Client for the rate history API
type Client struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewClient creates a new history client. Zero config values get defaults.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = domain.CurrencyUSD
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}

	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker: newBreaker("exchangerate-history", cfg.BreakerTimeout),
		log:     log.With().Str("client", "exchangerate-history").Logger(),
	}
}

// FetchRates returns the daily rates between start and end inclusive.
func (c *Client) FetchRates(ctx context.Context, start, end time.Time) ([]domain.DailyRates, error) {
	body, err := c.FetchRaw(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return ParseHistory(body)
}

// FetchRaw returns the undecoded history document so it can be archived.
func (c *Client) FetchRaw(ctx context.Context, start, end time.Time) ([]byte, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			end.Format(domain.DateLayout), start.Format(domain.DateLayout))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.historyURL(start, end)
	c.log.Debug().Str("url", reqURL).Msg("Fetching rate history")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}
	body := result.([]byte)

	c.log.Info().
		Str("start", start.Format(domain.DateLayout)).
		Str("end", end.Format(domain.DateLayout)).
		Int("bytes", len(body)).
		Msg("Fetched rate history")

	return body, nil
}

func (c *Client) historyURL(start, end time.Time) string {
	q := url.Values{}
	q.Set("start_at", start.Format(domain.DateLayout))
	q.Set("end_at", end.Format(domain.DateLayout))
	q.Set("base", string(c.cfg.BaseCurrency))
	if len(c.cfg.Symbols) > 0 {
		symbols := make([]string, len(c.cfg.Symbols))
		for i, s := range c.cfg.Symbols {
			symbols[i] = string(s)
		}
		q.Set("symbols", strings.Join(symbols, ","))
	}
	return c.cfg.BaseURL + "?" + q.Encode()
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
