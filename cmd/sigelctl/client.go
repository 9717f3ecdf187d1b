package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiPrefix is where the server mounts the versioned API.
const apiPrefix = "/api/v1"

type sigelClient struct {
	baseURL string
	role    string
	http    *http.Client
}

func newClient() *sigelClient {
	return &sigelClient{
		baseURL: strings.TrimRight(serverURL, "/"),
		role:    role,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError is the error body returned by the server.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// do sends a request with an optional JSON body and decodes a 2xx response
// into v when v is non-nil.
func (c *sigelClient) do(method, path string, body, v any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.role != "" {
		req.Header.Set("X-User-Role", c.role)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Error != "" {
			return fmt.Errorf("server returned %d (%s): %s", resp.StatusCode, ae.Code, ae.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	return nil
}

// getJSON performs a GET request and decodes the response.
func (c *sigelClient) getJSON(path string, v any) error {
	return c.do(http.MethodGet, path, nil, v)
}

// postJSON performs a POST request with a JSON body and decodes the response.
func (c *sigelClient) postJSON(path string, body, v any) error {
	return c.do(http.MethodPost, path, body, v)
}

// putJSON performs a PUT request with a JSON body and decodes the response.
func (c *sigelClient) putJSON(path string, body, v any) error {
	return c.do(http.MethodPut, path, body, v)
}
