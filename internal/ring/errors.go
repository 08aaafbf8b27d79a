package ring

import "errors"

// Sentinel errors for Ring API operations.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, ring.ErrTwoFactorRequired) {
//	    // the account needs a refresh token
//	}
var (
	// ErrTwoFactorRequired is returned when the account uses two-factor
	// authentication and no refresh token is configured. This needs user
	// action and is not retryable.
	ErrTwoFactorRequired = errors.New("ring: two-factor authentication enabled but no refresh token configured")

	// ErrAuthFailed is returned when the token endpoint rejects the credentials.
	ErrAuthFailed = errors.New("ring: authentication failed")

	// ErrNoCredentials is returned when neither a refresh token nor an
	// email and password are available.
	ErrNoCredentials = errors.New("ring: no credentials configured")

	// ErrUnexpectedStatus is returned for non-2xx API responses.
	ErrUnexpectedStatus = errors.New("ring: unexpected response status")

	// ErrInvalidResponse is returned when a response body cannot be decoded.
	ErrInvalidResponse = errors.New("ring: invalid response")
)
