package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// State is the body of /api/state.
type State struct {
	Lines   []int  `json:"lines"`
	Decimal uint8  `json:"decimal"`
	Hex     string `json:"hex"`
	Version uint64 `json:"version"`
}

// HTTPClient makes REST calls to the controller.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:3000").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetState fetches /api/state.
func (c *HTTPClient) GetState() (*State, error) {
	var s State
	if err := c.do(http.MethodGet, "/api/state", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Toggle sends POST /api/lines/{index}/toggle and returns the resulting state.
func (c *HTTPClient) Toggle(index int) (*State, error) {
	var s State
	if err := c.do(http.MethodPost, fmt.Sprintf("/api/lines/%d/toggle", index), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) do(method, path string, out interface{}) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// DeriveHTTPBase converts ws://host:port/ws to http://host:port.
func DeriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil || u.Host == "" {
		return "http://127.0.0.1:3000"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
