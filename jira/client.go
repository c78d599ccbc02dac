package jira

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"

	devhttp "github.com/morten-olsen/aura/http"
)

// Client reads issues from the Jira REST API. Requests go through the
// shared retrying REST client, so transient failures and rate limits are
// handled the same way as in the other integrations.
type Client struct {
	cfg  *Config
	rest *devhttp.Client
}

// ClientOption configures the client.
type ClientOption func(*clientSettings)

type clientSettings struct {
	httpClient *nethttp.Client
}

// WithHTTPClient sets the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *nethttp.Client) ClientOption {
	return func(s *clientSettings) {
		s.httpClient = hc
	}
}

// NewClient creates a client for the configured Jira instance.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var settings clientSettings
	for _, opt := range opts {
		opt(&settings)
	}

	return &Client{
		cfg: cfg,
		rest: devhttp.NewClient(devhttp.ClientConfig{
			Client:      settings.httpClient,
			BaseURL:     strings.TrimSuffix(cfg.URL, "/"),
			ServiceName: "jira",
			MaxRetries:  cfg.MaxRetries,
			RetryWait:   cfg.RetryWait,
			BeforeRequest: func(req *nethttp.Request) {
				req.Header.Set("Authorization", cfg.Auth.header())
			},
		}),
	}, nil
}

// GetIssue retrieves a single issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	if !ValidateIssueKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrIssueKeyInvalid, key)
	}

	var issue Issue
	if err := c.rest.Get(ctx, c.apiPath("/issue/"+key), &issue); err != nil {
		if errors.Is(err, devhttp.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrIssueNotFound, key)
		}
		return nil, err
	}
	return &issue, nil
}

func (c *Client) apiPath(endpoint string) string {
	version := strings.TrimPrefix(string(c.cfg.resolveAPIVersion()), "v")
	return "/rest/api/" + version + endpoint
}
