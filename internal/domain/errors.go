package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLoginDenied indicates the user refused consent at the provider.
	ErrLoginDenied = errors.New("onboard: login denied")
	// ErrInvalidParams indicates the callback is missing code or state.
	ErrInvalidParams = errors.New("onboard: invalid callback params")
	// ErrStateMismatch indicates the anti-forgery state did not match.
	ErrStateMismatch = errors.New("onboard: state mismatch")
	// ErrTokenExchange indicates the code-for-token exchange failed.
	ErrTokenExchange = errors.New("onboard: token exchange failed")
	// ErrProfileFetch indicates the profile lookup failed.
	ErrProfileFetch = errors.New("onboard: profile fetch failed")
	// ErrNotAuthenticated indicates the request carries no valid session.
	ErrNotAuthenticated = errors.New("onboard: not authenticated")
	// ErrInvalidRequest indicates caller input validation errors.
	ErrInvalidRequest = errors.New("onboard: invalid request")
	// ErrSaveFailed indicates nothing was persisted; the caller should retry.
	ErrSaveFailed = errors.New("onboard: save failed")
	// ErrSaveInProgress indicates another save holds the per-user lock.
	ErrSaveInProgress = errors.New("onboard: save already in progress")
)

// VerificationError reports a resource that could not be verified, tagged
// with the input field it belongs to so the UI can highlight it.
type VerificationError struct {
	Field  string
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verify %s: %s", e.Field, e.Reason)
}
