package challenge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPVerifier requests delegated verification tokens from an external
// verifier over HTTP.
type HTTPVerifier struct {
	httpClient *http.Client
	endpoint   string
}

// NewHTTPVerifier creates a verifier client for endpoint.
func NewHTTPVerifier(httpClient *http.Client, endpoint string) *HTTPVerifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPVerifier{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

var _ TokenVerifier = (*HTTPVerifier)(nil)

// RequestToken asks the verifier for a single-use token scoped to action.
func (v *HTTPVerifier) RequestToken(ctx context.Context, action string) (string, error) {
	payload, err := json.Marshal(map[string]string{"action": action})
	if err != nil {
		return "", fmt.Errorf("failed to encode verifier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build verifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("verifier returned status %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode verifier response: %w", err)
	}

	if body.Token == "" {
		return "", fmt.Errorf("verifier returned an empty token")
	}

	return body.Token, nil
}
