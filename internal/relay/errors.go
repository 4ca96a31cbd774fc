package relay

import "errors"

// Relay error types.
var (
	ErrUnsupportedMedia = errors.New("unsupported media kind")
	ErrQuotaExceeded    = errors.New("file exceeds tier size limit")
	ErrAccessDenied     = errors.New("access denied")
	ErrNotFound         = errors.New("no matching objects")
	ErrStoreEmpty       = errors.New("store is empty")
)
