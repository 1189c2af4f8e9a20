package openwb

import (
	"math"
	"testing"
)

func TestHandlePVScalar(t *testing.T) {
	manager := NewManager()

	updates, err := manager.HandlePV("power", []byte("421.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updates != nil {
		t.Fatalf("PV power must not produce D-Bus updates, got %+v", updates)
	}

	telemetry, seen := manager.Snapshot()
	if !seen || telemetry.PVPower != 421.5 {
		t.Fatalf("unexpected PV power: %v (seen=%v)", telemetry.PVPower, seen)
	}
}

func TestHandlePVEnvelope(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    float64
	}{
		{"numeric", `{"pv": {"power": 421.5}}`, 421.5},
		{"string number", `{"pv": {"power": "421.5"}}`, 421.5},
		{"extra fields", `{"pv": {"power": 100, "energy": 4}, "house": {"power": 250}}`, 100},
		{"missing pv", `{"house": {"power": 250}}`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			manager := NewManager()

			if _, err := manager.HandlePV("power", []byte(tc.payload)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			telemetry, _ := manager.Snapshot()
			if math.Abs(telemetry.PVPower-tc.want) > 1e-9 {
				t.Fatalf("unexpected PV power: %v, want %v", telemetry.PVPower, tc.want)
			}
		})
	}
}

func TestHandlePVInvalid(t *testing.T) {
	manager := NewManager()

	if _, err := manager.HandlePV("power", []byte("{broken")); err == nil {
		t.Fatal("expected error for broken JSON")
	}
	if _, err := manager.HandlePV("power", []byte("watts")); err == nil {
		t.Fatal("expected error for non-numeric payload")
	}

	if _, errors := manager.Counts(); errors != 2 {
		t.Fatalf("expected 2 decode errors, got %v", errors)
	}
}

func TestHandlePVIgnoresOtherKeys(t *testing.T) {
	manager := NewManager()

	updates, err := manager.HandlePV("daily_exported", []byte("12.5"))
	if err != nil || updates != nil {
		t.Fatalf("other pv keys must be ignored, got %+v, %v", updates, err)
	}

	if _, seen := manager.Snapshot(); seen {
		t.Fatal("ignored key must not mark telemetry as seen")
	}
}
