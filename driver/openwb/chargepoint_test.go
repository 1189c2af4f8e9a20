package openwb

import (
	"math"
	"reflect"
	"testing"
	"time"

	"rbf.dev/openwb_dbus_bridge/driver"
)

func TestHandleChargepointScalars(t *testing.T) {
	cases := []struct {
		key     string
		payload string
		want    []driver.Update
	}{
		{"power", "4140.5", []driver.Update{{Path: "/Ac/Power", Value: 4140.5}}},
		{"power", " 0 ", []driver.Update{{Path: "/Ac/Power", Value: 0.0}}},
		{"daily_imported", "7.25", []driver.Update{{Path: "/Ac/Energy/Forward", Value: 7.25}}},
		{"evse_current", "16", []driver.Update{{Path: "/Current", Value: 16.0}}},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			manager := NewManager()

			got, err := manager.HandleChargepoint(tc.key, []byte(tc.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}

			if _, seen := manager.Snapshot(); !seen {
				t.Fatal("telemetry not marked as seen")
			}
		})
	}
}

func TestHandleChargepointPhasePowers(t *testing.T) {
	manager := NewManager()

	updates, err := manager.HandleChargepoint("powers", []byte("[1380, 1375.5, 1384]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []driver.Update{
		{Path: "/Ac/L1/Power", Value: 1380.0},
		{Path: "/Ac/L2/Power", Value: 1375.5},
		{Path: "/Ac/L3/Power", Value: 1384.0},
	}
	if !reflect.DeepEqual(updates, want) {
		t.Fatalf("got %+v, want %+v", updates, want)
	}

	telemetry, _ := manager.Snapshot()
	if telemetry.PhasePower != [3]float64{1380, 1375.5, 1384} {
		t.Fatalf("unexpected phase powers: %v", telemetry.PhasePower)
	}
}

func TestHandleChargepointVoltages(t *testing.T) {
	manager := NewManager()

	updates, err := manager.HandleChargepoint("voltages", []byte("[230, 231, 232]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(updates) != 1 || updates[0].Path != "/Ac/Voltage" {
		t.Fatalf("unexpected updates: %+v", updates)
	}
	if voltage := updates[0].Value.(float64); math.Abs(voltage-231) > 1e-9 {
		t.Fatalf("unexpected average voltage: %v", voltage)
	}

	if _, err = manager.HandleChargepoint("voltages", []byte("[]")); err == nil {
		t.Fatal("expected error for empty voltages array")
	}
}

func TestHandleChargepointStatus(t *testing.T) {
	manager := NewManager()

	// Plugging in without charging reports connected.
	updates, err := manager.HandleChargepoint("plug_state", []byte("true"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []driver.Update{{Path: "/Status", Value: int(driver.StatusConnected)}}
	if !reflect.DeepEqual(updates, want) {
		t.Fatalf("got %+v, want %+v", updates, want)
	}

	// Charging wins over merely plugged.
	updates, err = manager.HandleChargepoint("charge_state", []byte("1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = []driver.Update{
		{Path: "/StartStop", Value: 1},
		{Path: "/Status", Value: int(driver.StatusCharging)},
	}
	if !reflect.DeepEqual(updates, want) {
		t.Fatalf("got %+v, want %+v", updates, want)
	}

	// Charge end falls back to connected while still plugged.
	updates, err = manager.HandleChargepoint("charge_state", []byte("false"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = []driver.Update{
		{Path: "/StartStop", Value: 0},
		{Path: "/Status", Value: int(driver.StatusConnected)},
	}
	if !reflect.DeepEqual(updates, want) {
		t.Fatalf("got %+v, want %+v", updates, want)
	}

	// Unplugging reports disconnected.
	updates, err = manager.HandleChargepoint("plug_state", []byte("0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = []driver.Update{{Path: "/Status", Value: int(driver.StatusDisconnected)}}
	if !reflect.DeepEqual(updates, want) {
		t.Fatalf("got %+v, want %+v", updates, want)
	}
}

func TestHandleChargepointUnknownKey(t *testing.T) {
	manager := NewManager()
	before := manager.LastSeen()
	time.Sleep(time.Millisecond)

	updates, err := manager.HandleChargepoint("soc_timestamp", []byte("1724668800"))
	if err != nil || updates != nil {
		t.Fatalf("unknown key must be ignored, got %+v, %v", updates, err)
	}

	if _, seen := manager.Snapshot(); seen {
		t.Fatal("unknown key must not mark telemetry as seen")
	}
	if !manager.LastSeen().After(before) {
		t.Fatal("unknown key must still count as broker activity")
	}
}

func TestHandleChargepointErrors(t *testing.T) {
	manager := NewManager()

	cases := []struct{ key, payload string }{
		{"power", "not-a-number"},
		{"powers", "{1: 2}"},
		{"voltages", "nope"},
		{"daily_imported", ""},
		{"evse_current", "six"},
	}

	for _, tc := range cases {
		if _, err := manager.HandleChargepoint(tc.key, []byte(tc.payload)); err == nil {
			t.Errorf("expected error for %v=%q", tc.key, tc.payload)
		}
	}

	handled, errors := manager.Counts()
	if handled != 0 || errors != uint64(len(cases)) {
		t.Fatalf("unexpected counts: handled=%v errors=%v", handled, errors)
	}
}

func TestHandleChargeMode(t *testing.T) {
	manager := NewManager()

	cases := []struct {
		payload string
		want    int
	}{
		{"2", driver.ModeAuto},
		{"0", driver.ModeManual},
		{"1", driver.ModeManual},
	}

	for _, tc := range cases {
		updates, err := manager.HandleChargeMode([]byte(tc.payload))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.payload, err)
		}
		want := []driver.Update{{Path: "/Mode", Value: tc.want}}
		if !reflect.DeepEqual(updates, want) {
			t.Fatalf("ChargeMode %q: got %+v, want %+v", tc.payload, updates, want)
		}
	}

	if _, err := manager.HandleChargeMode([]byte("pv")); err == nil {
		t.Fatal("expected error for non-numeric ChargeMode")
	}
}
