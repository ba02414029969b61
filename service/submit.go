package service

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/ports"
	transport "github.com/webgate-io/authgate/transport/http"
)

// SubmitterConfig controls how submissions are built.
type SubmitterConfig struct {
	// ShortenPath is the submission endpoint, "/api/shorten" by default.
	ShortenPath string

	// AllowCustomCode sends the optional custom short code when set.
	AllowCustomCode bool
}

// SubmissionInput is what the form hands over for one attempt.
type SubmissionInput struct {
	URL        string
	CustomCode string

	// Answer is the user's puzzle solution. Delegated providers ignore it.
	Answer string
}

// Submitter drives one challenge-gated form submission end to end: collect
// the proof, build the payload, invoke the pipeline, surface the outcome, and
// refresh the challenge regardless of how the attempt went. One attempt is
// live at a time per Submitter.
type Submitter struct {
	client   *transport.Client
	provider ports.ChallengeProvider
	cfg      SubmitterConfig
	logger   *log.Logger

	inFlight atomic.Bool
}

// NewSubmitter creates a new submitter. logger receives soft-failure
// warnings (challenge refresh errors) and defaults to the standard logger.
func NewSubmitter(client *transport.Client, provider ports.ChallengeProvider, cfg SubmitterConfig, logger *log.Logger) *Submitter {
	if cfg.ShortenPath == "" {
		cfg.ShortenPath = "/api/shorten"
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Submitter{
		client:   client,
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// Submit runs one submission attempt. A second call while one is in flight is
// rejected with core.ErrSubmissionInFlight. Whatever the outcome, a fresh
// challenge is requested before returning so a proof is never reused; a
// failed refresh is logged but never overrides the attempt's result.
func (s *Submitter) Submit(ctx context.Context, in SubmissionInput) (*core.ShortLink, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, core.ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	defer s.refreshChallenge(ctx)

	proof, err := s.provider.Verify(ctx, in.Answer)
	if err != nil {
		return nil, fmt.Errorf("failed to collect proof: %w", err)
	}

	req := transport.ShortenRequest{URL: in.URL}

	// Exactly one proof field is populated, matching the active strategy.
	switch s.provider.Mode() {
	case core.ModeDelegated:
		req.CaptchaToken = proof
	default:
		req.Captcha = proof
	}

	if s.cfg.AllowCustomCode && in.CustomCode != "" {
		req.CustomCode = in.CustomCode
	}

	link, err := s.client.Shorten(ctx, s.cfg.ShortenPath, req)
	if err != nil {
		return nil, err
	}

	return link, nil
}

// refreshChallenge requests the next challenge after an attempt. Failure here
// is soft: the provider keeps its previous presentation and the user can try
// again.
func (s *Submitter) refreshChallenge(ctx context.Context) {
	if _, err := s.provider.Issue(ctx); err != nil {
		s.logger.Printf("warning: challenge refresh failed: %v", err)
	}
}
