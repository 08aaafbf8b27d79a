package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sstewart199/ring/internal/directory"
	"github.com/sstewart199/ring/internal/infrastructure/config"
)

// fakeRing serves the token, locations and devices endpoints.
func fakeRing(t *testing.T, requireTwoFactor bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		if requireTwoFactor {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access","refresh_token":"refresh","expires_in":3600}`)
	})
	mux.HandleFunc("GET /rhq/devices/v1/locations", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"user_locations":[{"location_id":"L1","name":"Home"}]}`)
	})
	mux.HandleFunc("GET /api/ring_devices", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"doorbots":[{"id":1,"description":"Front Door","location_id":"L1"}],"stickup_cams":[{"id":2,"description":"Garden","location_id":"L1"}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig writes a config pointing at ringURL and sets RING_CONFIG.
func writeConfig(t *testing.T, ringURL string, apiPort int) {
	t.Helper()

	apiEnabled := apiPort > 0
	content := fmt.Sprintf(`
ring:
  api_url: %[1]s/api
  app_url: %[1]s/rhq
  oauth_url: %[1]s/oauth/token
  email: user@example.com
  password: secret
mqtt:
  enabled: false
influxdb:
  enabled: false
api:
  enabled: %[2]t
  host: 127.0.0.1
  port: %[3]d
logging:
  level: error
`, ringURL, apiEnabled, apiPort)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RING_CONFIG", path)
	for _, key := range []string{"RING_REFRESH_TOKEN", "RING_EMAIL", "RING_PASSWORD", "RING_API_PORT", "RING_API_HOST"} {
		t.Setenv(key, "")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("RING_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if exitCode(err) != 1 {
		t.Errorf("exitCode() = %d, want 1", exitCode(err))
	}
}

func TestRun_TwoFactorRequired(t *testing.T) {
	srv := fakeRing(t, true)
	writeConfig(t, srv.URL, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if !errors.Is(err, directory.ErrTwoFactorRequired) {
		t.Fatalf("run() error = %v, want ErrTwoFactorRequired", err)
	}
	if got := exitCode(err); got != exitTwoFactor {
		t.Errorf("exitCode() = %d, want %d", got, exitTwoFactor)
	}
}

func TestRun_ServesDirectory(t *testing.T) {
	srv := fakeRing(t, false)
	port := freePort(t)
	writeConfig(t, srv.URL, port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d/api/v1", port)
	deadline := time.Now().Add(5 * time.Second)
	var resp *http.Response
	for {
		var err error
		resp, err = http.Get(base + "/devices")
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("API did not come up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	var body struct {
		Count int `json:"count"`
	}
	err := json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("device count = %d, want 2", body.Count)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v, want nil on shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("RING_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("RING_CONFIG", "/etc/ring.yaml")
	if got := getConfigPath(); got != "/etc/ring.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/ring.yaml", got)
	}
}

func TestLocationAllowList(t *testing.T) {
	if got := locationAllowList(nil); got != nil {
		t.Errorf("unset filter = %v, want nil", got)
	}
	if got := locationAllowList(config.LocationFilter{}); got == nil || len(got) != 0 {
		t.Errorf("empty filter = %v, want empty non-nil", got)
	}
	if got := locationAllowList(config.LocationFilter{"a"}); len(got) != 1 || got[0] != "a" {
		t.Errorf("filter = %v, want [a]", got)
	}
}
