// Package common contains shared constants and sentinel errors used across
// the Yudo client packages.
package common

// SessionKey is the local-storage key holding the serialized session object.
const SessionKey = "user"

// RequestIDHeaderName is the HTTP header carrying a per-request id on
// outbound API calls.
const RequestIDHeaderName = "X-Request-ID"

// Destination paths used by navigation after authentication changes.
const (
	DashboardPath = "/dashboard"
	AuthPath      = "/auth"
)
