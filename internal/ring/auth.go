package ring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	oauthClientID = "ring_official_android"
	oauthScope    = "client"

	// tokenExpiryMargin is subtracted from expires_in so a token is never
	// used in its last seconds.
	tokenExpiryMargin = 30 * time.Second
)

// tokenRequest is the body of an OAuth token grant.
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	GrantType    string `json:"grant_type"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
}

// tokenResponse is the body returned by a successful grant.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// accessToken returns a cached bearer token or requests a new one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := c.grantRequest()
	if err != nil {
		return "", err
	}

	tok, err := c.requestToken(ctx, req)
	if err != nil {
		return "", err
	}

	ttl := time.Duration(tok.ExpiresIn)*time.Second - tokenExpiryMargin
	if ttl <= 0 {
		ttl = time.Duration(tok.ExpiresIn) * time.Second
	}
	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	c.logger.Debug("ring access token granted", "grant_type", req.GrantType, "expires_in", tok.ExpiresIn)
	return c.token, nil
}

// invalidateToken forgets the cached token so the next call re-authenticates.
func (c *Client) invalidateToken() {
	c.tokenMu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.tokenMu.Unlock()
}

// grantRequest picks the refresh-token grant when one is configured and
// falls back to the password grant.
func (c *Client) grantRequest() (tokenRequest, error) {
	switch {
	case c.opts.RefreshToken != "":
		return tokenRequest{
			ClientID:     oauthClientID,
			GrantType:    "refresh_token",
			Scope:        oauthScope,
			RefreshToken: c.opts.RefreshToken,
		}, nil
	case c.opts.Email != "" && c.opts.Password != "":
		return tokenRequest{
			ClientID:  oauthClientID,
			GrantType: "password",
			Scope:     oauthScope,
			Username:  c.opts.Email,
			Password:  c.opts.Password,
		}, nil
	default:
		return tokenRequest{}, ErrNoCredentials
	}
}

func (c *Client) requestToken(ctx context.Context, body tokenRequest) (*tokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.OAuthURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("2fa-support", "true")
	req.Header.Set("2fa-code", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusPreconditionFailed && body.GrantType == "password":
		// The account wants a verification code, which only an interactive
		// login can supply.
		return nil, ErrTwoFactorRequired
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s grant rejected (%d)", ErrAuthFailed, body.GrantType, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: token endpoint returned %d: %s",
			ErrUnexpectedStatus, resp.StatusCode, readErrorBody(resp.Body))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("%w: decode token: %v", ErrInvalidResponse, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access_token", ErrInvalidResponse)
	}
	return &tok, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

func readErrorBody(body io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	return string(bytes.TrimSpace(b))
}
