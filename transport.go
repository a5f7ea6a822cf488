package ultraocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// validateStatus checks the observed HTTP status against the single status
// every API call expects.
func validateStatus(got int) error {
	if got != http.StatusOK {
		return &InvalidStatusCodeError{Status: got, Expected: http.StatusOK}
	}
	return nil
}

// do issues an authenticated API request and returns the response body.
// The bearer credential is attached after auto-refresh; a non-200 answer
// becomes an InvalidStatusCodeError. No retries, no caching.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, params map[string]string) ([]byte, error) {
	if err := c.autoAuthenticate(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(params) > 0 {
		values := url.Values{}
		for key, value := range params {
			values.Set(key, value)
		}
		req.URL.RawQuery = values.Encode()
	}

	rid := uuid.New().String()
	start := time.Now()
	log.Debug().Str("reqId", rid).Str("method", method).Str("url", endpoint).Msg("UltraOCR API request")

	resp, err := c.api.Do(req)
	if err != nil {
		log.Debug().Str("reqId", rid).Dur("duration", time.Since(start)).Err(err).Msg("UltraOCR API response")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().Str("reqId", rid).Int("statusCode", resp.StatusCode).Dur("duration", time.Since(start)).Msg("UltraOCR API response")

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := validateStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil, params)
}

func (c *Client) post(ctx context.Context, endpoint string, body any, params map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, endpoint, body, params)
}

// getJSON fetches endpoint and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params map[string]string, out any) error {
	payload, err := c.get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
