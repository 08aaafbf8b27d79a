package ring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds a single request when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Logger defines the logging interface used by the client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Client.
type Options struct {
	APIURL   string // e.g. https://api.ring.com/clients_api
	AppURL   string // e.g. https://app.ring.com/rhq/v1
	OAuthURL string // e.g. https://oauth.ring.com/oauth/token

	Email        string
	Password     string
	RefreshToken string

	Timeout time.Duration

	// HTTPClient overrides the default client. Its Timeout is left alone.
	HTTPClient *http.Client
}

// Client is a Ring cloud REST client.
//
// All methods are safe for concurrent use. The access token is shared
// between calls and renewed once it expires.
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     Logger
	now        func() time.Time

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a client. No request is made until the first call.
func NewClient(opts Options) *Client {
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	opts.AppURL = strings.TrimRight(opts.AppURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		opts:       opts,
		httpClient: httpClient,
		logger:     noopLogger{},
		now:        time.Now,
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		c.logger = noopLogger{}
		return
	}
	c.logger = logger
}

// FetchDevices returns the account's device snapshot.
func (c *Client) FetchDevices(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	if err := c.do(ctx, http.MethodGet, c.opts.APIURL+"/ring_devices", &snap); err != nil {
		return nil, fmt.Errorf("fetching devices: %w", err)
	}
	return &snap, nil
}

// FetchLocations returns the account's locations.
func (c *Client) FetchLocations(ctx context.Context) ([]LocationData, error) {
	var resp struct {
		UserLocations []LocationData `json:"user_locations"`
	}
	if err := c.do(ctx, http.MethodGet, c.opts.AppURL+"/devices/v1/locations", &resp); err != nil {
		return nil, fmt.Errorf("fetching locations: %w", err)
	}
	return resp.UserLocations, nil
}

// FetchActiveDings returns the dings currently active across the account.
func (c *Client) FetchActiveDings(ctx context.Context) ([]ActiveDing, error) {
	var dings []ActiveDing
	if err := c.do(ctx, http.MethodGet, c.opts.APIURL+"/dings/active", &dings); err != nil {
		return nil, fmt.Errorf("fetching active dings: %w", err)
	}
	return dings, nil
}

// FetchHistory returns the most recent events, newest first.
// A non-positive limit leaves the server default in place.
func (c *Client) FetchHistory(ctx context.Context, limit int, favoritesOnly bool) ([]HistoryEvent, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if favoritesOnly {
		q.Set("favorites", "1")
	}

	endpoint := c.opts.APIURL + "/doorbots/history"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var events []HistoryEvent
	if err := c.do(ctx, http.MethodGet, endpoint, &events); err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	return events, nil
}

// SetLight switches a camera's floodlight.
func (c *Client) SetLight(ctx context.Context, cameraID int64, on bool) error {
	action := "floodlight_light_off"
	if on {
		action = "floodlight_light_on"
	}
	if err := c.do(ctx, http.MethodPut, c.doorbotURL(cameraID, action), nil); err != nil {
		return fmt.Errorf("setting light on camera %d: %w", cameraID, err)
	}
	return nil
}

// SetSiren switches a camera's siren.
func (c *Client) SetSiren(ctx context.Context, cameraID int64, on bool) error {
	action := "siren_off"
	if on {
		action = "siren_on"
	}
	if err := c.do(ctx, http.MethodPut, c.doorbotURL(cameraID, action), nil); err != nil {
		return fmt.Errorf("setting siren on camera %d: %w", cameraID, err)
	}
	return nil
}

func (c *Client) doorbotURL(cameraID int64, action string) string {
	return fmt.Sprintf("%s/doorbots/%d/%s", c.opts.APIURL, cameraID, action)
}

// do performs an authenticated request and decodes a JSON body into result.
func (c *Client) do(ctx context.Context, method, endpoint string, result any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, req.URL.Path, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %d: %s",
			ErrUnexpectedStatus, method, req.URL.Path, resp.StatusCode, readErrorBody(resp.Body))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, req.URL.Path, err)
	}
	return nil
}
