package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/ports"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response surfaced as an error, carrying the server's
// message when one was provided.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}

	return e.Message
}

// Unwrap makes 401 responses match core.ErrUnauthorized with errors.Is.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return core.ErrUnauthorized
	}

	return nil
}

// Client performs JSON calls against the backend through the pipeline
// Transport, mapping error responses to *APIError.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL with the full pipeline installed.
func NewClient(baseURL string, sessions SessionState, nav ports.Navigator, events ports.EventPublisher, loginPath string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: NewTransport(nil, sessions, nav, events, loginPath),
			Timeout:   defaultTimeout,
		},
	}
}

// HTTPClient exposes the underlying pipeline-wrapped client so collaborators
// like the puzzle provider share the same hooks.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// GetJSON performs a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req, out)
}

// PostJSON performs a POST with a JSON body and decodes the response into
// out. out may be nil when the response body does not matter.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}

	return nil
}

// decodeErrorMessage pulls the optional {error} field out of a failure body.
// A missing or undecodable body yields empty, and APIError falls back to a
// generic message.
func decodeErrorMessage(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}

	return body.Error
}
