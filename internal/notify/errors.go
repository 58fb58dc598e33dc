package notify

import "errors"

// ErrNotConfigured means the notifier is missing a transport, renderer or
// recipients. It is the only error Notify returns; delivery problems are
// reported in the Result instead.
var ErrNotConfigured = errors.New("notifier is not configured")
