package ports

import (
	"context"

	"github.com/webgate-io/authgate/core"
)

// ChallengeProvider obtains human-verification challenges and converts a
// user's input into the proof attached to a submission. Implementations hold
// at most one outstanding challenge and replace it on every Issue.
type ChallengeProvider interface {
	// Mode identifies the strategy, which determines the proof field a
	// submission payload carries.
	Mode() core.ChallengeMode

	// Issue obtains a fresh challenge, invalidating any prior one. For the
	// puzzle strategy a failed issue keeps the previous presentation usable.
	Issue(ctx context.Context) (*core.Challenge, error)

	// Verify resolves the proof for the outstanding challenge. For puzzles
	// this passes the collected answer through; for delegated verification it
	// requests a single-use token and may block until the verifier is ready.
	Verify(ctx context.Context, input string) (string, error)
}
