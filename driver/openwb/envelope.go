package openwb

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"rbf.dev/openwb_dbus_bridge/driver"
)

// Envelope is the composite JSON status some OpenWB installations publish
// on the pv topics instead of a bare number.
type Envelope struct {
	PV struct {
		Power float64 `mapstructure:"power"`
	} `mapstructure:"pv"`
}

// HandlePV tracks the photovoltaic feed for the metrics endpoint. The
// payload is either a plain number or an Envelope; no D-Bus path exists
// for it on an evcharger service.
func (m *Manager) HandlePV(key string, payload []byte) ([]driver.Update, error) {
	if key != "power" {
		m.touch()
		return nil, nil
	}

	var power float64

	if bytes.HasPrefix(bytes.TrimSpace(payload), []byte("{")) {
		envelope, err := decodeEnvelope(payload)
		if err != nil {
			m.fail()
			return nil, fmt.Errorf("unable to decode PV envelope: %w", err)
		}
		power = envelope.PV.Power
	} else {
		parsed, err := parseFloat(payload)
		if err != nil {
			m.fail()
			return nil, fmt.Errorf("unable to decode PV power: %w", err)
		}
		power = parsed
	}

	m.update(func(t *Telemetry) { t.PVPower = power })

	return nil, nil
}

// decodeEnvelope goes through a generic map so numeric fields survive
// arriving as strings, which OpenWB does for some firmware versions.
func decodeEnvelope(payload []byte) (*Envelope, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	var envelope Envelope

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &envelope,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	return &envelope, nil
}
