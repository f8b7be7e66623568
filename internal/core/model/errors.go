package model

import "errors"

// Error taxonomy shared by every component. Not-found, ambiguous and
// unresolved outcomes are result states, not errors; only conditions a
// caller cannot act on as data surface here.
var (
	// ErrNotFound marks an absent root or opinion reference.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable marks a graph store failure. It is propagated,
	// never retried internally, and any partial traversal is discarded.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidParameter marks input rejected at the boundary before any
	// work begins, e.g. negative depth or lambda outside [0,1].
	ErrInvalidParameter = errors.New("invalid parameter")
)
