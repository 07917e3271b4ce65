package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrTokenMissing   = fmt.Errorf("no token stored for session")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")
	ErrInvalidState   = fmt.Errorf("invalid oauth state")
	ErrTimeout        = fmt.Errorf("operation timed out")

	// API and payload errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrMalformedRecord = fmt.Errorf("malformed record")
	ErrUnmatchedTrack  = fmt.Errorf("track has no audio features")
	ErrTooManyIDs      = fmt.Errorf("too many ids for a single request")

	// Input validation errors
	ErrInvalidInput     = fmt.Errorf("invalid input")
	ErrMissingArgument  = fmt.Errorf("missing required argument")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrInvalidTimeRange = fmt.Errorf("invalid time range")
)
