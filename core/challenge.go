package core

import "time"

// ChallengeMode identifies which verification strategy produced a challenge.
type ChallengeMode string

const (
	// ModePuzzle is a locally rendered image puzzle the user solves by typing
	// the characters shown.
	ModePuzzle ChallengeMode = "puzzle"

	// ModeDelegated defers verification to an external verifier that issues
	// single-use, action-scoped tokens.
	ModeDelegated ChallengeMode = "delegated"
)

// Challenge represents one outstanding human-verification challenge. A provider
// holds at most one at a time and replaces it wholesale on refresh.
type Challenge struct {
	ID           string        // Unique identifier for the challenge
	Mode         ChallengeMode // Strategy that issued it
	Presentation []byte        // Renderable material (PNG bytes for puzzles, nil for delegated)
	IssuedAt     time.Time     // When the challenge was obtained
}

// ShortLink is the canonical result of a successful shorten submission,
// normalized from the field-name variants different deployments return.
type ShortLink struct {
	ShortURL string
}
