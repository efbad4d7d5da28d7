package catalog

import "errors"

// ErrUnavailable is returned when the upstream catalog signals it is down
// (HTTP 503). Handlers surface this as a distinct service_unavailable body so
// clients can show the dedicated modal instead of a generic failure.
var ErrUnavailable = errors.New("catalog upstream unavailable")
