package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrGatewayUnavailable covers transport failures, timeouts and non-2xx
	// responses without a usable body. Callers decide whether to retry.
	ErrGatewayUnavailable = errors.New("gateway unavailable")

	// ErrNotFound is reported only where a 404 carries meaning for the
	// caller: session fetch and trajectory listing.
	ErrNotFound = errors.New("not found")

	// ErrUnexpectedResponse means a 2xx response was missing a required field.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// BuildFailedError is a domain-level rejection of a trajectory build. Reason
// comes verbatim from the remote error body and is shown to the user as-is.
type BuildFailedError struct {
	Reason string
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("trajectory build failed: %s", e.Reason)
}
