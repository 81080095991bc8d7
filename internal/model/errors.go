package model

import "fmt"

// UpstreamFetchError is a failed or timed-out price fetch for one symbol.
type UpstreamFetchError struct {
	Symbol string
	Err    error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// SessionReleaseError is a failure to close a shared upstream session.
type SessionReleaseError struct {
	SessionID string
	Err       error
}

func (e *SessionReleaseError) Error() string {
	return fmt.Sprintf("release session %s: %v", e.SessionID, e.Err)
}

func (e *SessionReleaseError) Unwrap() error { return e.Err }
