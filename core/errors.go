package core

import "errors"

var (
	ErrUnauthorized       = errors.New("request not authorized")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrMalformedResponse  = errors.New("malformed server response")
	ErrNoChallenge        = errors.New("no challenge outstanding")
	ErrVerifierNotReady   = errors.New("verifier is not ready")
	ErrNotFound           = errors.New("key not found")
)
