package gate_test

import (
	"testing"
	"time"

	"devgate/internal/gate"
	"devgate/internal/testutil"
)

type consentFixture struct {
	manager *gate.ConsentManager
	store   gate.DocumentStore
	clock   *testutil.StubClock
}

func newConsentFixture(t *testing.T) *consentFixture {
	t.Helper()
	store := testutil.NewTestStore(t)
	clock := testutil.FixedClock()
	manager := gate.NewConsentManager(store, clock, testutil.NewStubIDGenerator(), testutil.NewStubCodeGenerator("123456"), gate.NewNopLogger())
	return &consentFixture{manager: manager, store: store, clock: clock}
}

// grant opens and confirms a consent handshake in one step.
func (f *consentFixture) grant(t *testing.T, deviceType, deviceID, profile string, minutes int, persistent bool) {
	t.Helper()
	offer := f.manager.Request(deviceType, deviceID, "Owner", minutes, profile, persistent)
	if !offer.OK {
		t.Fatalf("Request() failed: %s", offer.Message)
	}
	decision := f.manager.Confirm(offer.RequestID, offer.ConsentCode)
	if !decision.OK {
		t.Fatalf("Confirm() failed: %s", decision.Message)
	}
}

func TestConsentManager_Request(t *testing.T) {
	t.Run("rejects unsupported device type", func(t *testing.T) {
		f := newConsentFixture(t)
		offer := f.manager.Request("ios", "abc", "", 0, "", false)
		if offer.OK || offer.Code != gate.CodeValidation {
			t.Errorf("Request() = %+v, want validation failure", offer.Result)
		}
	})

	t.Run("rejects empty device id", func(t *testing.T) {
		f := newConsentFixture(t)
		offer := f.manager.Request("android", "  ", "", 0, "", false)
		if offer.OK || offer.Code != gate.CodeValidation {
			t.Errorf("Request() = %+v, want validation failure", offer.Result)
		}
	})

	t.Run("returns the plaintext code once", func(t *testing.T) {
		f := newConsentFixture(t)
		offer := f.manager.Request("android", "serial-1", "", 0, "", false)
		if !offer.OK {
			t.Fatalf("Request() failed: %s", offer.Message)
		}
		if offer.ConsentCode != "123456" {
			t.Errorf("ConsentCode = %q, want %q", offer.ConsentCode, "123456")
		}
		if offer.RequestID == "" {
			t.Error("expected a request id")
		}
	})

	t.Run("clamps duration minutes", func(t *testing.T) {
		f := newConsentFixture(t)
		tests := []struct {
			minutes int
			want    int
		}{
			{0, 120},
			{-5, 120},
			{5, 10},
			{120, 120},
			{99999999, 43200},
		}
		for _, tt := range tests {
			offer := f.manager.Request("android", "serial-1", "", tt.minutes, "", false)
			if offer.DurationMinutes != tt.want {
				t.Errorf("Request(minutes=%d).DurationMinutes = %d, want %d", tt.minutes, offer.DurationMinutes, tt.want)
			}
		}
	})

	t.Run("persistent requests carry no expiry", func(t *testing.T) {
		f := newConsentFixture(t)
		offer := f.manager.Request("android", "serial-1", "", 60, "", true)
		if offer.ExpiresAt != nil {
			t.Errorf("ExpiresAt = %v, want nil", offer.ExpiresAt)
		}
		if offer.ExpiresLabel != "never (until revoked)" {
			t.Errorf("ExpiresLabel = %q", offer.ExpiresLabel)
		}
	})

	t.Run("unknown profile falls back to developer", func(t *testing.T) {
		f := newConsentFixture(t)
		offer := f.manager.Request("android", "serial-1", "", 0, "superuser", false)
		if offer.AccessProfile != gate.ProfileDeveloper {
			t.Errorf("AccessProfile = %q, want developer", offer.AccessProfile)
		}
	})
}

func TestConsentManager_Confirm(t *testing.T) {
	t.Run("rejects a wrong code", func(t *testing.T) {
		f := newConsentFixture(t)
		offer := f.manager.Request("android", "serial-1", "", 0, "", false)
		decision := f.manager.Confirm(offer.RequestID, "999999")
		if decision.OK || decision.Code != gate.CodeAuthFailed {
			t.Errorf("Confirm() = %+v, want auth-failed", decision.Result)
		}
		// A failed confirm does not consume the request.
		decision = f.manager.Confirm(offer.RequestID, offer.ConsentCode)
		if !decision.OK {
			t.Errorf("Confirm() after failed attempt = %+v, want success", decision.Result)
		}
	})

	t.Run("confirms at most once", func(t *testing.T) {
		f := newConsentFixture(t)
		offer := f.manager.Request("android", "serial-1", "", 0, "", false)
		if decision := f.manager.Confirm(offer.RequestID, offer.ConsentCode); !decision.OK {
			t.Fatalf("Confirm() failed: %s", decision.Message)
		}
		decision := f.manager.Confirm(offer.RequestID, offer.ConsentCode)
		if decision.OK || decision.Code != gate.CodeNotFound {
			t.Errorf("second Confirm() = %+v, want not-found", decision.Result)
		}
	})

	t.Run("rejects an expired request", func(t *testing.T) {
		f := newConsentFixture(t)
		offer := f.manager.Request("android", "serial-1", "", 0, "", false)
		f.clock.Advance(31 * time.Minute)
		decision := f.manager.Confirm(offer.RequestID, offer.ConsentCode)
		if decision.OK || decision.Code != gate.CodeNotFound {
			t.Errorf("Confirm() on expired request = %+v, want not-found", decision.Result)
		}
	})

	t.Run("activates the grant", func(t *testing.T) {
		f := newConsentFixture(t)
		f.grant(t, "android", "Serial-1", "standard", 60, false)

		grant, err := f.manager.Get("ANDROID", "serial-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if grant == nil {
			t.Fatal("expected an active grant")
		}
		if grant.AccessProfile != gate.ProfileStandard {
			t.Errorf("AccessProfile = %q, want standard", grant.AccessProfile)
		}
	})

	t.Run("last confirm wins for the same device", func(t *testing.T) {
		f := newConsentFixture(t)
		f.grant(t, "android", "serial-1", "developer", 60, false)
		f.grant(t, "android", "serial-1", "standard", 60, false)

		grant, err := f.manager.Get("android", "serial-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if grant.AccessProfile != gate.ProfileStandard {
			t.Errorf("AccessProfile = %q, want standard (no scope merge)", grant.AccessProfile)
		}
		if gate.HasScope(grant, gate.ScopeModifyFiles) {
			t.Error("replaced grant kept the developer scope set")
		}
	})
}

func TestConsentManager_Expiry(t *testing.T) {
	t.Run("timed grant expires", func(t *testing.T) {
		f := newConsentFixture(t)
		f.grant(t, "android", "serial-1", "", 10, false)

		f.clock.Advance(9 * time.Minute)
		if grant, _ := f.manager.Get("android", "serial-1"); grant == nil {
			t.Fatal("grant expired early")
		}

		f.clock.Advance(2 * time.Minute)
		if grant, _ := f.manager.Get("android", "serial-1"); grant != nil {
			t.Fatal("expected grant to be pruned after expiry")
		}
	})

	t.Run("persistent grant is never pruned", func(t *testing.T) {
		f := newConsentFixture(t)
		f.grant(t, "android", "serial-1", "", 0, true)

		f.clock.Advance(10000 * time.Hour)
		grant, err := f.manager.Get("android", "serial-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if grant == nil {
			t.Fatal("persistent grant was pruned")
		}
		if !grant.PersistentAccess {
			t.Error("PersistentAccess = false, want true")
		}
	})
}

func TestConsentManager_Revoke(t *testing.T) {
	f := newConsentFixture(t)
	f.grant(t, "android", "serial-1", "", 0, true)

	res := f.manager.Revoke("Android", "SERIAL-1")
	if !res.OK {
		t.Fatalf("Revoke() failed: %s", res.Message)
	}
	if grant, _ := f.manager.Get("android", "serial-1"); grant != nil {
		t.Error("grant survived revocation")
	}

	res = f.manager.Revoke("android", "serial-1")
	if res.OK || res.Code != gate.CodeNotFound {
		t.Errorf("second Revoke() = %+v, want not-found", res)
	}
}

func TestConsentManager_LegacyGrants(t *testing.T) {
	// Grants written before profile tracking carry no profile or scopes.
	// They must fall back to the full developer scope set.
	f := newConsentFixture(t)
	err := f.store.Write(gate.DocDeviceAccess, map[string]any{
		"pendingRequests": map[string]any{},
		"grants": map[string]any{
			"android:legacy-1": map[string]any{
				"deviceType": "android",
				"deviceId":   "legacy-1",
				"ownerName":  "Owner",
				"grantedAt":  f.clock.Now(),
				"expiresAt":  nil,
			},
		},
	})
	if err != nil {
		t.Fatalf("seeding legacy grant: %v", err)
	}

	grant, err := f.manager.Get("android", "legacy-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if grant == nil {
		t.Fatal("expected legacy grant to load")
	}
	if !grant.PersistentAccess {
		t.Error("legacy grant without expiry must be persistent")
	}
	if !gate.HasScope(grant, gate.ScopeModifyFiles) {
		t.Error("legacy grant must fall back to developer scopes")
	}
}

func TestConsentManager_List(t *testing.T) {
	f := newConsentFixture(t)
	f.grant(t, "windows", "HOSTY", "", 0, true)
	f.grant(t, "android", "serial-2", "", 0, true)
	f.grant(t, "android", "serial-1", "", 0, true)

	grants, err := f.manager.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(grants) != 3 {
		t.Fatalf("got %d grants, want 3", len(grants))
	}
	want := []string{"android:serial-1", "android:serial-2", "windows:hosty"}
	for i, g := range grants {
		if key := gate.DeviceKey(g.DeviceType, g.DeviceID); key != want[i] {
			t.Errorf("grants[%d] = %s, want %s", i, key, want[i])
		}
	}
}
