package stubapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()

	s := New(cfg)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	return s, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestCaptchaEndpoint(t *testing.T) {
	s, srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/captcha")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Image string `json:"image"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	// The payload is a real PNG of the advertised dimensions.
	raw, err := base64.StdEncoding.DecodeString(body.Image)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, captchaWidth, img.Bounds().Dx())
	assert.Equal(t, captchaHeight, img.Bounds().Dy())

	assert.Len(t, s.CurrentAnswer(), captchaLength)
}

func TestCaptchaReplacesOutstanding(t *testing.T) {
	s, srv := newTestServer(t, Config{})

	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL + "/api/captcha")
		require.NoError(t, err)
		resp.Body.Close()
	}

	first := s.CurrentAnswer()

	resp, err := http.Get(srv.URL + "/api/captcha")
	require.NoError(t, err)
	resp.Body.Close()

	// Overwhelmingly likely to differ; a stable answer would mean the
	// endpoint stopped rotating puzzles.
	assert.NotEqual(t, first, s.CurrentAnswer())
}

func TestShortenConsumesAnswer(t *testing.T) {
	s, srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/captcha")
	require.NoError(t, err)
	resp.Body.Close()

	answer := s.CurrentAnswer()

	resp = postJSON(t, srv.URL+"/api/shorten", map[string]string{
		"url":     "https://example.com",
		"captcha": strings.ToLower(answer),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["shortUrl"], "http://short.test/")

	// The answer is single use.
	resp = postJSON(t, srv.URL+"/api/shorten", map[string]string{
		"url":     "https://example.com",
		"captcha": answer,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShortenRejectsWrongAnswer(t *testing.T) {
	_, srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/captcha")
	require.NoError(t, err)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/shorten", map[string]string{
		"url":     "https://example.com",
		"captcha": "wrong!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyTokenSingleUse(t *testing.T) {
	_, srv := newTestServer(t, Config{})

	resp := postJSON(t, srv.URL+"/api/verify", map[string]string{"action": "shorten"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, strings.HasPrefix(body.Token, "shorten:"))

	resp = postJSON(t, srv.URL+"/api/shorten", map[string]string{
		"url":          "https://example.com",
		"captchaToken": body.Token,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/shorten", map[string]string{
		"url":          "https://example.com",
		"captchaToken": body.Token,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginAndProtectedRoute(t *testing.T) {
	s, srv := newTestServer(t, Config{})
	s.AddUser("demo", "demo")

	resp := postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"username": "demo",
		"password": "demo",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	assert.Equal(t, "demo", body.User.Username)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/my-videos", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+body.Token)

	got, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer got.Body.Close()
	assert.Equal(t, http.StatusOK, got.StatusCode)
}

func TestProtectedRouteRejectsBadToken(t *testing.T) {
	_, srv := newTestServer(t, Config{})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/my-videos", nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRegisterConflict(t *testing.T) {
	s, srv := newTestServer(t, Config{})
	s.AddUser("demo", "demo")

	resp := postJSON(t, srv.URL+"/api/auth/register", map[string]string{
		"username": "demo",
		"password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestResultFieldVariant(t *testing.T) {
	_, srv := newTestServer(t, Config{ResultField: "full_url"})

	resp := postJSON(t, srv.URL+"/api/verify", map[string]string{"action": "shorten"})
	var verify struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verify))

	resp = postJSON(t, srv.URL+"/api/shorten", map[string]string{
		"url":          "https://example.com",
		"captchaToken": verify.Token,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["full_url"])
	assert.Empty(t, body["shortUrl"])
}
