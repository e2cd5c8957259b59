package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and cache backends return
// these (optionally wrapped) so callers can branch on the fact rather than on
// backend-specific error types.
//
//   - ErrNotFound: entity or cache entry does not exist (or has expired)
//   - ErrUnavailable: backend temporarily unreachable; callers decide whether
//     to fail open (the match cache) or surface it (the repository)
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
