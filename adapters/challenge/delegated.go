package challenge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/ports"
)

// TokenVerifier is the external verifier behind the delegated strategy. It
// issues single-use tokens scoped to a named action; the validity window of a
// token is the verifier's business, not the client's.
type TokenVerifier interface {
	RequestToken(ctx context.Context, action string) (string, error)
}

// VerifierFunc adapts a function to the TokenVerifier interface.
type VerifierFunc func(ctx context.Context, action string) (string, error)

// RequestToken calls f.
func (f VerifierFunc) RequestToken(ctx context.Context, action string) (string, error) {
	return f(ctx, action)
}

// DelegatedProvider defers verification to an external TokenVerifier. Issue
// only records that a challenge is pending; the actual proof is acquired in
// Verify, and only after the verifier has signalled readiness.
type DelegatedProvider struct {
	verifier TokenVerifier
	action   string

	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	current *core.Challenge
}

// NewDelegatedProvider creates a delegated provider requesting tokens scoped
// to action.
func NewDelegatedProvider(verifier TokenVerifier, action string) *DelegatedProvider {
	return &DelegatedProvider{
		verifier: verifier,
		action:   action,
		ready:    make(chan struct{}),
	}
}

var _ ports.ChallengeProvider = (*DelegatedProvider)(nil)

// Mode returns core.ModeDelegated
func (p *DelegatedProvider) Mode() core.ChallengeMode {
	return core.ModeDelegated
}

// SignalReady marks the external verifier as ready. Verify blocks until this
// has been called once; further calls have no effect.
func (p *DelegatedProvider) SignalReady() {
	p.readyOnce.Do(func() { close(p.ready) })
}

// Issue records a new pending challenge. There is no presentation to render
// and no network call; proof acquisition happens in Verify.
func (p *DelegatedProvider) Issue(ctx context.Context) (*core.Challenge, error) {
	ch := &core.Challenge{
		ID:       uuid.New().String(),
		Mode:     core.ModeDelegated,
		IssuedAt: time.Now(),
	}

	p.mu.Lock()
	p.current = ch
	p.mu.Unlock()

	return ch, nil
}

// Verify waits for the verifier's readiness signal, then requests one
// action-scoped token. The input argument is ignored; delegated proofs come
// from the verifier, not the user. Each invocation resolves exactly once.
func (p *DelegatedProvider) Verify(ctx context.Context, _ string) (string, error) {
	select {
	case <-p.ready:
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", core.ErrVerifierNotReady, ctx.Err())
	}

	token, err := p.verifier.RequestToken(ctx, p.action)
	if err != nil {
		return "", fmt.Errorf("verifier token request failed: %w", err)
	}

	return token, nil
}
