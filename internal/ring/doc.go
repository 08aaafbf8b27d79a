// Package ring is a small client for the Ring cloud REST API.
//
// It covers what the directory needs: the device snapshot
// (GET ring_devices), the location list, active dings, event history and
// the floodlight and siren switches. Authentication uses the OAuth token
// endpoint with a refresh token when one is configured, or the account
// email and password otherwise.
//
// An account with two-factor authentication cannot log in with a password
// grant. The token endpoint answers 412 in that case and the client
// returns ErrTwoFactorRequired; the caller must obtain a refresh token.
//
// Usage:
//
//	client := ring.NewClient(ring.Options{
//	    APIURL:       "https://api.ring.com/clients_api",
//	    AppURL:       "https://app.ring.com/rhq/v1",
//	    OAuthURL:     "https://oauth.ring.com/oauth/token",
//	    RefreshToken: token,
//	})
//	snap, err := client.FetchDevices(ctx)
package ring
