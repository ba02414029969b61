package challenge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/ports"
)

// PuzzleProvider issues image puzzles fetched from the backend's captcha
// endpoint. At most one puzzle is outstanding; each successful Issue replaces
// it. A failed fetch keeps the previous puzzle's presentation so the user is
// never left without anything to solve.
type PuzzleProvider struct {
	httpClient *http.Client
	endpoint   string

	// OnRefresh is invoked after every successful Issue with the new
	// challenge. The UI uses it to clear and refocus the answer input; it is
	// deliberately not invoked when a refresh fails.
	OnRefresh func(*core.Challenge)

	mu      sync.Mutex
	current *core.Challenge
}

// NewPuzzleProvider creates a puzzle provider fetching from endpoint.
func NewPuzzleProvider(httpClient *http.Client, endpoint string) *PuzzleProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &PuzzleProvider{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

var _ ports.ChallengeProvider = (*PuzzleProvider)(nil)

// Mode returns core.ModePuzzle
func (p *PuzzleProvider) Mode() core.ChallengeMode {
	return core.ModePuzzle
}

// Issue fetches a freshly generated puzzle. On success the outstanding puzzle
// is replaced and OnRefresh fires; on failure the previous puzzle is retained
// and the error is returned to the caller.
func (p *PuzzleProvider) Issue(ctx context.Context) (*core.Challenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build captcha request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captcha: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("captcha endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode captcha response: %w", err)
	}

	img, err := base64.StdEncoding.DecodeString(body.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to decode captcha image: %w", err)
	}

	ch := &core.Challenge{
		ID:           uuid.New().String(),
		Mode:         core.ModePuzzle,
		Presentation: img,
		IssuedAt:     time.Now(),
	}

	p.mu.Lock()
	p.current = ch
	p.mu.Unlock()

	if p.OnRefresh != nil {
		p.OnRefresh(ch)
	}

	return ch, nil
}

// Verify passes the locally collected answer through as the submission proof.
// It fails when no puzzle is outstanding, which means Issue has never
// succeeded for this provider.
func (p *PuzzleProvider) Verify(ctx context.Context, input string) (string, error) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	if current == nil {
		return "", core.ErrNoChallenge
	}

	return strings.TrimSpace(input), nil
}

// Current returns the outstanding puzzle, or nil when none has been issued.
// The UI renders its presentation.
func (p *PuzzleProvider) Current() *core.Challenge {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current
}
