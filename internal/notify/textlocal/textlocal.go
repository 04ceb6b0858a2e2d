// Package textlocal implements the SMS transport against the TextLocal
// gateway.
package textlocal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.textlocal.in/send/"

// Client posts messages to the TextLocal send endpoint.
type Client struct {
	apiKey string
	apiURL string
	sender string
	http   *http.Client
}

// New creates a TextLocal transport. An empty apiURL uses the production
// endpoint. An empty apiKey yields a client whose deliveries always fail;
// attempts are still made visible through the delivery log.
func New(apiKey, apiURL, sender string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiKey: apiKey,
		apiURL: apiURL,
		sender: sender,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Deliver sends one message to one canonical number. Any gateway error is
// returned as-is; callers treat every error uniformly as a failed delivery.
func (c *Client) Deliver(ctx context.Context, canonicalNumber, message string) error {
	if c.apiKey == "" {
		return fmt.Errorf("textlocal: API key not configured")
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("numbers", canonicalNumber)
	params.Set("message", message)
	params.Set("sender", c.sender)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("textlocal: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("textlocal: send: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("textlocal: decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || body.Status != "success" {
		if len(body.Errors) > 0 {
			return fmt.Errorf("textlocal: gateway error %d: %s", body.Errors[0].Code, body.Errors[0].Message)
		}
		return fmt.Errorf("textlocal: gateway status %q (http %d)", body.Status, resp.StatusCode)
	}

	return nil
}
