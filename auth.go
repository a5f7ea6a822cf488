package ultraocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Authenticate requests a bearer token and stores it for future calls.
// expires is the token lifetime in minutes. A non-200 answer from the token
// endpoint becomes an AuthenticationError carrying both codes.
func (c *Client) Authenticate(ctx context.Context, clientID, clientSecret string, expires int) error {
	if expires <= 0 {
		expires = DefaultTokenExpires
	}

	body, err := json.Marshal(tokenRequest{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		ExpiresIn:    expires,
	})
	if err != nil {
		return fmt.Errorf("encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthBaseURL+"/token", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("url", c.cfg.AuthBaseURL+"/token").Int("expiresMinutes", expires).Msg("Authenticating")

	resp, err := c.api.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("statusCode", resp.StatusCode).Msg("Authentication failed")
		return &AuthenticationError{Status: resp.StatusCode, Expected: http.StatusOK}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}
	var token tokenResponse
	if err := json.Unmarshal(payload, &token); err != nil {
		return fmt.Errorf("parse token response: %w", err)
	}

	c.token = token.Token
	c.expiresAt = time.Now().Add(time.Duration(expires) * time.Minute)
	log.Info().Time("expiresAt", c.expiresAt).Msg("Authenticated")
	return nil
}

// autoAuthenticate re-authenticates with the configured credentials when
// auto-refresh is enabled and the stored token is missing or past expiry.
// This is the only implicit credential mutation in the client.
func (c *Client) autoAuthenticate(ctx context.Context) error {
	if !c.cfg.AutoRefresh {
		return nil
	}
	if c.credentialState() == credentialValid {
		return nil
	}
	log.Debug().Msg("Credential missing or expired, re-authenticating")
	return c.Authenticate(ctx, c.cfg.ClientID, c.cfg.ClientSecret, c.cfg.TokenExpires)
}
