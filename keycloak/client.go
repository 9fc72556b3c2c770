package keycloak

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrIntrospectionFailed is returned when the introspection endpoint cannot be reached
	ErrIntrospectionFailed = errors.New("token introspection request failed")

	// ErrUnexpectedStatus is returned when the introspection endpoint answers with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected introspection status")

	// ErrInvalidResponse is returned when the introspection body cannot be decoded
	ErrInvalidResponse = errors.New("invalid introspection response")

	// ErrMissingIntrospectionURL is returned when no endpoint can be derived from the registration
	ErrMissingIntrospectionURL = errors.New("introspection URL not configured")
)

// maxResponseBytes bounds how much of an introspection body is read
const maxResponseBytes = 1 << 20

// Config holds configuration for Client
type Config struct {
	Provider        ProviderConfig
	SSLVerification bool
	HTTPTimeout     time.Duration
}

// IntrospectionObserver receives the outcome of every introspection call
type IntrospectionObserver interface {
	ObserveIntrospection(outcome string, duration time.Duration)
}

// Client calls the Keycloak token introspection endpoint
type Client struct {
	provider   ProviderConfig
	httpClient *http.Client
	observer   IntrospectionObserver
	logger     *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithObserver records introspection outcomes
func WithObserver(observer IntrospectionObserver) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient creates a new introspection client
func NewClient(config Config, logger *zap.Logger, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !config.SSLVerification {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-out
	}

	c := &Client{
		provider: config.Provider,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.HTTPTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the client registration used for introspection
func (c *Client) Provider() ProviderConfig {
	return c.provider
}

// Introspect posts the token to the introspection endpoint and decodes the answer.
// An inactive token is not an error at this level.
func (c *Client) Introspect(ctx context.Context, token string) (result *IntrospectionResult, err error) {
	start := time.Now()
	defer func() {
		c.observe(outcomeOf(result, err), time.Since(start))
	}()

	endpoint := c.provider.TokenIntrospectionURL()
	if endpoint == "" {
		return nil, ErrMissingIntrospectionURL
	}

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.provider.ClientID, c.provider.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntrospectionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrIntrospectionFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("introspection endpoint rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", endpoint))
		return nil, fmt.Errorf("%w: status code %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var decoded IntrospectionResult
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return &decoded, nil
}

func (c *Client) observe(outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveIntrospection(outcome, d)
	}
}

func outcomeOf(result *IntrospectionResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case result != nil && result.Active:
		return "active"
	default:
		return "inactive"
	}
}
