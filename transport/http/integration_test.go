package http_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webgate-io/authgate/adapters/challenge"
	"github.com/webgate-io/authgate/adapters/store"
	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/internal/stubapi"
	"github.com/webgate-io/authgate/ports"
	"github.com/webgate-io/authgate/service"
	transport "github.com/webgate-io/authgate/transport/http"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stack struct {
	stub     *stubapi.Server
	baseURL  string
	client   *transport.Client
	sessions *service.SessionService
	visited  *[]string
}

func newStack(t *testing.T, cfg stubapi.Config) *stack {
	t.Helper()

	stub := stubapi.New(cfg)
	stub.AddUser("demo", "demo")

	srv := httptest.NewServer(stub.Router())
	t.Cleanup(srv.Close)

	sessions := service.NewSessionService(store.NewMemoryStore(), nil)
	visited := &[]string{}
	nav := ports.NavigatorFunc(func(path string) { *visited = append(*visited, path) })

	return &stack{
		stub:     stub,
		baseURL:  srv.URL,
		client:   transport.NewClient(srv.URL, sessions, nav, nil, "/login"),
		sessions: sessions,
		visited:  visited,
	}
}

func TestIntegration_PuzzleShortenFlow(t *testing.T) {
	st := newStack(t, stubapi.Config{})
	ctx := context.Background()

	auth := service.NewAuthService(st.client, st.sessions)
	user, err := auth.Login(ctx, "demo", "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", user.Username)

	puzzle := challenge.NewPuzzleProvider(st.client.HTTPClient(), st.baseURL+"/api/captcha")
	_, err = puzzle.Issue(ctx)
	require.NoError(t, err)

	answer := st.stub.CurrentAnswer()
	require.NotEmpty(t, answer)

	submitter := service.NewSubmitter(st.client, puzzle, service.SubmitterConfig{}, nil)
	link, err := submitter.Submit(ctx, service.SubmissionInput{
		URL:    "https://example.com/some/long/path",
		Answer: answer,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.ShortURL, "http://short.test/"))

	// The submitter requested a replacement puzzle before returning.
	assert.NotEmpty(t, st.stub.CurrentAnswer())
	assert.NotNil(t, puzzle.Current())
}

func TestIntegration_WrongAnswerRejected(t *testing.T) {
	st := newStack(t, stubapi.Config{})
	ctx := context.Background()

	puzzle := challenge.NewPuzzleProvider(st.client.HTTPClient(), st.baseURL+"/api/captcha")
	_, err := puzzle.Issue(ctx)
	require.NoError(t, err)

	submitter := service.NewSubmitter(st.client, puzzle, service.SubmitterConfig{}, nil)
	_, err = submitter.Submit(ctx, service.SubmissionInput{
		URL:    "https://example.com",
		Answer: "definitely wrong",
	})
	require.Error(t, err)
	assert.Equal(t, "invalid captcha", err.Error())
}

func TestIntegration_DelegatedShortenFlow(t *testing.T) {
	st := newStack(t, stubapi.Config{})
	ctx := context.Background()

	verifier := challenge.NewHTTPVerifier(st.client.HTTPClient(), st.baseURL+"/api/verify")
	delegated := challenge.NewDelegatedProvider(verifier, "shorten")
	delegated.SignalReady()

	_, err := delegated.Issue(ctx)
	require.NoError(t, err)

	submitter := service.NewSubmitter(st.client, delegated, service.SubmitterConfig{AllowCustomCode: true}, nil)
	link, err := submitter.Submit(ctx, service.SubmissionInput{
		URL:        "https://example.com",
		CustomCode: "mycode",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://short.test/mycode", link.ShortURL)
}

func TestIntegration_ResultFieldVariants(t *testing.T) {
	for _, field := range []string{"shortUrl", "short_url", "full_url"} {
		t.Run(field, func(t *testing.T) {
			st := newStack(t, stubapi.Config{ResultField: field})
			ctx := context.Background()

			verifier := challenge.NewHTTPVerifier(st.client.HTTPClient(), st.baseURL+"/api/verify")
			delegated := challenge.NewDelegatedProvider(verifier, "shorten")
			delegated.SignalReady()

			submitter := service.NewSubmitter(st.client, delegated, service.SubmitterConfig{}, nil)
			link, err := submitter.Submit(ctx, service.SubmissionInput{URL: "https://example.com"})
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(link.ShortURL, "http://short.test/"))
		})
	}
}

func TestIntegration_StaleTokenTearsDownSession(t *testing.T) {
	st := newStack(t, stubapi.Config{})
	ctx := context.Background()

	require.NoError(t, st.sessions.SetSession(ctx, "not-a-real-token", &core.User{ID: 1, Username: "demo"}))

	var out map[string]any
	err := st.client.GetJSON(ctx, "/api/my-videos", &out)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.False(t, st.sessions.IsAuthenticated(ctx))
	assert.Equal(t, []string{"/login"}, *st.visited)
}

func TestIntegration_AuthenticatedAccountRoute(t *testing.T) {
	st := newStack(t, stubapi.Config{})
	ctx := context.Background()

	auth := service.NewAuthService(st.client, st.sessions)
	_, err := auth.Login(ctx, "demo", "demo")
	require.NoError(t, err)

	var out struct {
		UserID int64 `json:"user_id"`
		Videos []any `json:"videos"`
	}
	require.NoError(t, st.client.GetJSON(ctx, "/api/my-videos", &out))
	assert.Equal(t, int64(1), out.UserID)

	// The minted token carries an expiry the session can report.
	_, ok := st.sessions.TokenExpiresAt(ctx)
	assert.True(t, ok)
}

func TestIntegration_RegisterThenGuard(t *testing.T) {
	st := newStack(t, stubapi.Config{})
	ctx := context.Background()

	auth := service.NewAuthService(st.client, st.sessions)
	guard := service.NewGuard(st.sessions, "/login", "/")

	// Logged out: the protected route redirects to login.
	decision := guard.Evaluate(ctx, core.RouteRule{RequiresAuth: true})
	assert.Equal(t, "/login", decision.RedirectTo)

	_, err := auth.Register(ctx, "newuser", "new@example.com", "secret")
	require.NoError(t, err)

	// Logged in: the protected route opens and the login page bounces away.
	assert.True(t, guard.Evaluate(ctx, core.RouteRule{RequiresAuth: true}).Allowed)
	assert.Equal(t, "/", guard.Evaluate(ctx, core.RouteRule{RequiresGuest: true}).RedirectTo)
}
