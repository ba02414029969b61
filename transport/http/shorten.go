package http

import (
	"context"
	"fmt"

	"github.com/webgate-io/authgate/core"
)

// ShortenRequest is the submission payload. Exactly one of Captcha and
// CaptchaToken is populated, depending on the active challenge strategy;
// CustomCode is only sent when the deployment supports it.
type ShortenRequest struct {
	URL          string `json:"url"`
	Captcha      string `json:"captcha,omitempty"`
	CaptchaToken string `json:"captchaToken,omitempty"`
	CustomCode   string `json:"customCode,omitempty"`
}

// shortenResponse accepts the field-name variants different backend
// deployments return for the same value. The drift is historical; each
// deployment uses exactly one of them.
type shortenResponse struct {
	ShortURL      string `json:"shortUrl"`
	ShortURLSnake string `json:"short_url"`
	FullURL       string `json:"full_url"`
}

func (r shortenResponse) canonical() string {
	switch {
	case r.ShortURL != "":
		return r.ShortURL
	case r.ShortURLSnake != "":
		return r.ShortURLSnake
	default:
		return r.FullURL
	}
}

// Shorten submits a shorten request to path and normalizes the response into
// the canonical ShortLink shape. A 2xx response carrying none of the known
// result fields is a malformed response, not a silent empty result.
func (c *Client) Shorten(ctx context.Context, path string, req ShortenRequest) (*core.ShortLink, error) {
	var resp shortenResponse
	if err := c.PostJSON(ctx, path, req, &resp); err != nil {
		return nil, err
	}

	shortURL := resp.canonical()
	if shortURL == "" {
		return nil, fmt.Errorf("%w: no short link field present", core.ErrMalformedResponse)
	}

	return &core.ShortLink{ShortURL: shortURL}, nil
}
