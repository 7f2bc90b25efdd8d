package ai

import "errors"

// Error kinds callers can test with errors.Is. Providers wrap these with
// detail about which setting is missing or which call failed.
var (
	// ErrMissingCredentials indicates the selected provider has no API
	// key or token configured.
	ErrMissingCredentials = errors.New("missing provider credentials")

	// ErrRequestFailed indicates the completion request reached the
	// network but did not produce a usable response.
	ErrRequestFailed = errors.New("completion request failed")
)
