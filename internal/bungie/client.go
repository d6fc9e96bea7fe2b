// Package bungie fetches raid completion counts for the members of a
// clan watchlist from the Bungie.net platform API.
package bungie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"raidline/internal/config"
)

// Bungie answers every call with this envelope. ErrorCode 1 is success.
type envelope struct {
	Response    json.RawMessage `json:"Response"`
	ErrorCode   int             `json:"ErrorCode"`
	ErrorStatus string          `json:"ErrorStatus"`
	Message     string          `json:"Message"`
}

// APIError is a call that reached Bungie and was refused, either with an
// HTTP error status or a platform error code.
type APIError struct {
	Path       string
	StatusCode int
	Code       int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("bungie %s: %s (%d): %s", e.Path, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("bungie %s: http %d", e.Path, e.StatusCode)
}

// Client talks to the platform API. The zero value is not usable; build
// one with New.
type Client struct {
	BaseURL string
	APIKey  string
	Clans   []string
	Workers int
	Retries int
	Backoff time.Duration
	HTTP    *http.Client
	Logger  *zap.Logger
}

// New builds a client from the bungie config section.
func New(cfg config.BungieConfig, apiKey string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("bungie api key is not set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  apiKey,
		Clans:   cfg.Clans,
		Workers: cfg.Workers,
		Retries: cfg.Retries,
		Backoff: cfg.Backoff,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Logger:  logger,
	}, nil
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func retryable(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// get fetches path and decodes the Response field of the envelope into
// out. Transport failures and 500/502/504 answers are retried with
// exponential backoff.
func (c *Client) get(ctx context.Context, path string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			wait := c.Backoff << (attempt - 1)
			c.logger().Debug("retrying bungie call", zap.String("path", path), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(lastErr))
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		retry, err := c.do(ctx, path, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("giving up after %d retries: %w", c.Retries, lastErr)
}

func (c *Client) do(ctx context.Context, path string, out any) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return true, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return true, fmt.Errorf("read %s: %w", path, err)
	}
	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Path: path, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code, apiErr.Status, apiErr.Message = env.ErrorCode, env.ErrorStatus, env.Message
		}
		return retryable(resp.StatusCode), apiErr
	}
	if decodeErr != nil {
		return false, fmt.Errorf("decode %s: %w", path, decodeErr)
	}
	if env.ErrorCode > 1 {
		return false, &APIError{Path: path, StatusCode: resp.StatusCode, Code: env.ErrorCode, Status: env.ErrorStatus, Message: env.Message}
	}
	if out == nil || len(env.Response) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return false, fmt.Errorf("decode %s response: %w", path, err)
	}
	return false, nil
}
