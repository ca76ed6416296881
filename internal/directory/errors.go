package directory

import "errors"

var (
	// ErrNotConfigured is returned while no directory settings exist. It is
	// the one failure distinguishable from a plain miss: callers map it to a
	// service-unavailable outcome rather than a 404.
	ErrNotConfigured = errors.New("directory: settings not configured")

	// ErrNotFound covers both a genuine miss and a directory-side failure on
	// a lookup; the adapter never lets protocol errors escape.
	ErrNotFound = errors.New("directory: not found")
)
