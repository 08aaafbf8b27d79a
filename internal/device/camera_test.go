package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sstewart199/ring/internal/ring"
)

// mockController records calls made by a Camera.
type mockController struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockController) SetLight(_ context.Context, id int64, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		m.calls = append(m.calls, "light_on")
	} else {
		m.calls = append(m.calls, "light_off")
	}
	return m.err
}

func (m *mockController) SetSiren(_ context.Context, id int64, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		m.calls = append(m.calls, "siren_on")
	} else {
		m.calls = append(m.calls, "siren_off")
	}
	return m.err
}

func testCamera(id int64, locationID string) *Camera {
	return NewCamera(ring.CameraData{ID: id, Description: "cam", LocationID: locationID}, false, nil)
}

func TestCamera_UpdateData(t *testing.T) {
	cam := testCamera(1, "loc-a")
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cam.now = func() time.Time { return fixed }

	var got []ring.CameraData
	cam.OnData(func(c *Camera, data ring.CameraData) {
		if c != cam {
			t.Error("listener received wrong camera")
		}
		// Re-entering the camera from a listener must not deadlock.
		_ = c.Name()
		got = append(got, data)
	})

	cam.UpdateData(ring.CameraData{ID: 1, Description: "Front", LocationID: "loc-a",
		Alerts: ring.CameraAlerts{Connection: "offline"}})

	if len(got) != 1 {
		t.Fatalf("listener called %d times, want 1", len(got))
	}
	if cam.Name() != "Front" {
		t.Errorf("Name() = %q, want Front", cam.Name())
	}
	if !cam.IsOffline() {
		t.Error("IsOffline() = false, want true")
	}
	if st := cam.State(); !st.UpdatedAt.Equal(fixed) {
		t.Errorf("State().UpdatedAt = %v, want %v", st.UpdatedAt, fixed)
	}
}

func TestCamera_ProcessDing(t *testing.T) {
	cam := testCamera(1, "loc-a")

	var notified []Ding
	cam.OnDing(func(_ *Camera, d Ding) { notified = append(notified, d) })

	if !cam.ProcessDing(ring.ActiveDing{ID: 10, DoorbotID: 1, Kind: ring.DingKindDing}) {
		t.Error("first ding should be new")
	}
	if cam.ProcessDing(ring.ActiveDing{ID: 10, DoorbotID: 1, Kind: ring.DingKindDing}) {
		t.Error("repeated ding should be ignored")
	}
	if !cam.ProcessDing(ring.ActiveDing{ID: 11, DoorbotID: 1, Kind: ring.DingKindMotion}) {
		t.Error("second ding should be new")
	}

	if len(notified) != 2 {
		t.Fatalf("listener called %d times, want 2", len(notified))
	}
	recent := cam.RecentDings()
	if len(recent) != 2 || recent[0].ID != 11 || !recent[0].Motion {
		t.Errorf("RecentDings() = %+v, want newest motion ding first", recent)
	}
}

func TestCamera_ProcessDing_Bounded(t *testing.T) {
	cam := testCamera(1, "loc-a")
	for i := 0; i < maxRecentDings+5; i++ {
		cam.ProcessDing(ring.ActiveDing{ID: int64(i), DoorbotID: 1})
	}
	if got := len(cam.RecentDings()); got != maxRecentDings {
		t.Errorf("len(RecentDings()) = %d, want %d", got, maxRecentDings)
	}
}

func TestCamera_ProcessDing_RepeatBeyondHistory(t *testing.T) {
	cam := testCamera(1, "loc-a")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cam.now = func() time.Time { return now }

	active := make([]ring.ActiveDing, maxRecentDings+5)
	for i := range active {
		active[i] = ring.ActiveDing{ID: int64(i + 1), DoorbotID: 1, ExpiresIn: 180}
	}

	announced := 0
	cam.OnDing(func(*Camera, Ding) { announced++ })

	// Two polls returning the same active set: the oldest ids have left
	// the recent history but must still count as seen.
	for range 2 {
		for _, d := range active {
			cam.ProcessDing(d)
		}
		now = now.Add(5 * time.Second)
	}

	if announced != len(active) {
		t.Errorf("dings announced = %d, want %d", announced, len(active))
	}
}

func TestCamera_ProcessDing_ForgetsExpired(t *testing.T) {
	cam := testCamera(1, "loc-a")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cam.now = func() time.Time { return now }

	if !cam.ProcessDing(ring.ActiveDing{ID: 7, ExpiresIn: 60}) {
		t.Fatal("first ProcessDing() = false, want true")
	}
	now = now.Add(30 * time.Second)
	if cam.ProcessDing(ring.ActiveDing{ID: 7, ExpiresIn: 30}) {
		t.Error("ProcessDing() before expiry = true, want false")
	}

	now = now.Add(time.Minute)
	if !cam.ProcessDing(ring.ActiveDing{ID: 7, ExpiresIn: 60}) {
		t.Error("ProcessDing() after expiry = false, want true")
	}
}

func TestCamera_ProcessDing_NoExpiry(t *testing.T) {
	cam := testCamera(1, "loc-a")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cam.now = func() time.Time { return now }

	cam.ProcessDing(ring.ActiveDing{ID: 8})

	// Seeing the id again keeps it remembered for another full period.
	now = now.Add(seenDingTTL / 2)
	if cam.ProcessDing(ring.ActiveDing{ID: 8}) {
		t.Error("ProcessDing() within retention = true, want false")
	}
	now = now.Add(seenDingTTL - time.Second)
	if cam.ProcessDing(ring.ActiveDing{ID: 8}) {
		t.Error("ProcessDing() within extended retention = true, want false")
	}

	now = now.Add(seenDingTTL + time.Second)
	if !cam.ProcessDing(ring.ActiveDing{ID: 8}) {
		t.Error("ProcessDing() after retention = false, want true")
	}
}

func TestCamera_ActiveDings(t *testing.T) {
	cam := testCamera(1, "loc-a")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cam.now = func() time.Time { return now }

	cam.ProcessDing(ring.ActiveDing{ID: 1, ExpiresIn: 60})
	cam.ProcessDing(ring.ActiveDing{ID: 2, ExpiresIn: 180})

	now = now.Add(2 * time.Minute)
	active := cam.ActiveDings()
	if len(active) != 1 || active[0].ID != 2 {
		t.Errorf("ActiveDings() = %+v, want only ding 2", active)
	}
}

func TestCamera_RequestUpdate(t *testing.T) {
	cam := testCamera(1, "loc-a")

	// No requester installed: a no-op.
	cam.RequestUpdate()

	calls := 0
	cam.SetUpdateRequester(func() { calls++ })
	cam.RequestUpdate()
	cam.RequestUpdate()

	if calls != 2 {
		t.Errorf("requester called %d times, want 2", calls)
	}
}

func TestCamera_SetLightAndSiren(t *testing.T) {
	ctrl := &mockController{}
	cam := NewCamera(ring.CameraData{ID: 3}, true, ctrl)

	requests := 0
	cam.SetUpdateRequester(func() { requests++ })

	ctx := context.Background()
	if err := cam.SetLight(ctx, true); err != nil {
		t.Fatalf("SetLight() error = %v", err)
	}
	if err := cam.SetSiren(ctx, false); err != nil {
		t.Fatalf("SetSiren() error = %v", err)
	}

	if len(ctrl.calls) != 2 || ctrl.calls[0] != "light_on" || ctrl.calls[1] != "siren_off" {
		t.Errorf("controller calls = %v", ctrl.calls)
	}
	if requests != 2 {
		t.Errorf("RequestUpdate called %d times, want 2", requests)
	}
}

func TestCamera_ActionErrors(t *testing.T) {
	ctx := context.Background()

	if err := testCamera(1, "").SetLight(ctx, true); !errors.Is(err, ErrNoController) {
		t.Errorf("SetLight() without controller error = %v, want ErrNoController", err)
	}

	boom := errors.New("boom")
	cam := NewCamera(ring.CameraData{ID: 4}, false, &mockController{err: boom})
	requests := 0
	cam.SetUpdateRequester(func() { requests++ })

	if err := cam.SetSiren(ctx, true); !errors.Is(err, boom) {
		t.Errorf("SetSiren() error = %v, want wrapped boom", err)
	}
	if requests != 0 {
		t.Error("failed action should not request an update")
	}
}

func TestCamera_State(t *testing.T) {
	rssi := -60
	cam := NewCamera(ring.CameraData{
		ID:          9,
		Description: "Garage",
		Kind:        "cocoa_floodlight",
		LocationID:  "loc-b",
		BatteryLife: []byte(`"73"`),
		Health:      ring.CameraHealth{RSSI: &rssi},
		LEDStatus:   "on",
		SirenStatus: &ring.SirenStatus{SecondsRemaining: 12},
	}, false, nil)

	st := cam.State()
	if st.Name != "Garage" || st.LocationID != "loc-b" || st.Kind != "cocoa_floodlight" {
		t.Errorf("State() identity = %+v", st)
	}
	if st.Battery == nil || *st.Battery != 73 {
		t.Errorf("State().Battery = %v, want 73", st.Battery)
	}
	if st.RSSI == nil || *st.RSSI != -60 {
		t.Errorf("State().RSSI = %v, want -60", st.RSSI)
	}
	if !st.LightOn || !st.SirenActive {
		t.Errorf("State() light/siren = %v/%v, want true/true", st.LightOn, st.SirenActive)
	}
}

func TestCamera_ConcurrentAccess(t *testing.T) {
	cam := testCamera(1, "loc-a")
	cam.SetUpdateRequester(func() {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cam.UpdateData(ring.CameraData{ID: 1, Description: "x"})
				cam.ProcessDing(ring.ActiveDing{ID: int64(i*100 + j)})
				_ = cam.State()
				cam.RequestUpdate()
			}
		}(i)
	}
	wg.Wait()
}
