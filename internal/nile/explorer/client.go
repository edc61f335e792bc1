// Package explorer is a client for Etherscan-compatible block explorer
// APIs. It supplies the identity and provenance signals behind the Name
// dimension: verification status, contract age, deployer identity.
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a block explorer API client.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an explorer client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://api.etherscan.io/api",
	}
}

// NewClientWithBase creates a client pointing at a custom base URL (for testing
// and for Etherscan-compatible explorers on other chains).
func NewClientWithBase(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

// envelope is the explorer API response wrapper. Status is "1" on
// success; Result is either the payload or an error string.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// get performs a GET for the given module/action and decodes the result
// payload into out.
func (c *Client) get(ctx context.Context, module, action string, params map[string]string, out any) error {
	q := url.Values{}
	q.Set("module", module)
	q.Set("action", action)
	for k, v := range params {
		q.Set(k, v)
	}
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("explorer API %s/%s returned %d: %s", module, action, resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Status != "1" {
		var detail string
		_ = json.Unmarshal(env.Result, &detail)
		return fmt.Errorf("explorer API %s/%s: %s (%s)", module, action, env.Message, detail)
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}
