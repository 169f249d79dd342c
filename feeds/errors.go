package feeds

import "errors"

var (
	// ErrInvalidLimit is returned when a page size is outside [MinLimit, MaxLimit]
	ErrInvalidLimit = errors.New("limit out of range")
	// ErrSelfInteraction is returned when a user swipes on themselves
	ErrSelfInteraction = errors.New("self interaction")
	// ErrInvalidInteraction is returned for a missing user id or unknown kind
	ErrInvalidInteraction = errors.New("invalid interaction")
	// ErrInvalidRecord is returned when a candidate fails validation
	ErrInvalidRecord = errors.New("invalid candidate record")
	// ErrSourceUnavailable is returned when a feed source cannot be called at all
	ErrSourceUnavailable = errors.New("feed source unavailable")
	// ErrUpstream wraps any other backend failure
	ErrUpstream = errors.New("upstream error")
)
