package route

import "errors"

// Sentinel error kinds. Errors returned by this package wrap one of these,
// so callers can tell failure kinds apart with errors.Is; the wrapping
// error carries the detail.
var (
	ErrInvalidMethod   = errors.New("invalid method")
	ErrInvalidPathPart = errors.New("invalid path part")
	ErrInvalidRoute    = errors.New("invalid route")
	ErrInvalidHeader   = errors.New("invalid side-channel header")
	ErrInvalidStatus   = errors.New("invalid side-channel status")
	ErrRouteSpawn      = errors.New("failed to spawn handler")
	ErrRouteWait       = errors.New("failed to wait for handler")
	ErrRouteIoError    = errors.New("handler i/o error")
	ErrRouteIoOpen     = errors.New("handler stdin/stdout unavailable")
)
