// Package localstore is the durable, device-scoped key/value store behind the
// synchronization manager. One Store instance is bound to one device; keys
// survive restarts. Concurrent writers (several tabs of the same device) are
// resolved last-writer-wins, with no change feed.
package localstore

import "context"

// Keys recognized by the session subsystem, plus the auth token read by
// authenticated proxy calls.
const (
	KeyActiveSessionID  = "active_session_id"
	KeyCachedTrajectory = "cached_trajectory"
	KeyAccessToken      = "access_token"
)

// sessionKeys are the keys wiped by Clear. The access token is deliberately
// outside the session subsystem: resetting an interview must not log the
// user out.
var sessionKeys = []string{KeyActiveSessionID, KeyCachedTrajectory}

type Store interface {
	// Get returns the stored value. Absence is a normal result, not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set overwrites unconditionally.
	Set(ctx context.Context, key, value string) error

	// Remove is idempotent; removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error

	// Clear wipes the session-subsystem keys for this device. Used only by
	// the explicit reset operation.
	Clear(ctx context.Context) error
}
