// Package clckapi talks to the external shortening service.
package clckapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ShortenPath     = "/api/shorten"
	HealthcheckPath = "/api/healthcheck"

	maxBodyBytes = 1 << 20
)

var (
	// ErrUnavailable wraps network and transport failures.
	ErrUnavailable = errors.New("shortening service unavailable")
	// ErrMalformedResponse is returned when a response does not match the contract.
	ErrMalformedResponse = errors.New("malformed response from shortening service")
)

// RejectedError is returned when the service refuses the submitted URL.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("shortening service rejected url (status %d): %s", e.StatusCode, e.Message)
}

// UserMessage is the service-provided, human readable reason.
func (e *RejectedError) UserMessage() string {
	return e.Message
}

type shortenResponse struct {
	URL struct {
		ShortURL  string `json:"short_url"`
		ShortCode string `json:"short_code"`
	} `json:"url"`
}

type failureResponse struct {
	Fields struct {
		URL string `json:"url"`
	} `json:"fields"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// Client is an HTTP client for the shortening service.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api url must be an absolute http(s) url: %q", baseURL)
	}

	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimSuffix(u.String(), "/"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Shorten submits longURL as the multipart field "url" and returns the short URL.
func (c *Client) Shorten(ctx context.Context, longURL string) (string, error) {
	var body bytes.Buffer

	form := multipart.NewWriter(&body)
	if err := form.WriteField("url", longURL); err != nil {
		return "", err
	}

	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ShortenPath, &body)
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", rejection(resp.StatusCode, payload)
	}

	var out shortenResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if out.URL.ShortURL == "" {
		return "", fmt.Errorf("%w: missing url.short_url", ErrMalformedResponse)
	}

	return out.URL.ShortURL, nil
}

func rejection(status int, payload []byte) error {
	var out failureResponse
	if err := json.Unmarshal(payload, &out); err != nil || out.Fields.URL == "" {
		return fmt.Errorf("%w: status %d", ErrMalformedResponse, status)
	}

	return &RejectedError{StatusCode: status, Message: out.Fields.URL}
}

// Ping checks that the service answers its health check.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthcheckPath, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: healthcheck status %d", ErrUnavailable, resp.StatusCode)
	}

	return nil
}
