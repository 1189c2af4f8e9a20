package openwb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"rbf.dev/openwb_dbus_bridge/driver"
)

// HandleChargepoint decodes a chargepoint get/<key> message and returns
// the D-Bus updates it produces. Unknown keys return no updates; OpenWB
// publishes far more than the evcharger service can represent.
func (m *Manager) HandleChargepoint(key string, payload []byte) ([]driver.Update, error) {
	switch key {
	case "power":
		power, err := parseFloat(payload)
		if err != nil {
			m.fail()
			return nil, fmt.Errorf("unable to decode power: %w", err)
		}

		m.update(func(t *Telemetry) { t.AcPower = power })

		return []driver.Update{{Path: "/Ac/Power", Value: power}}, nil

	case "powers":
		phases, err := parseFloatArray(payload)
		if err != nil {
			m.fail()
			return nil, fmt.Errorf("unable to decode phase powers: %w", err)
		}

		if len(phases) > 3 {
			phases = phases[:3]
		}

		updates := make([]driver.Update, len(phases))

		m.update(func(t *Telemetry) {
			for index, power := range phases {
				t.PhasePower[index] = power
				updates[index] = driver.Update{
					Path:  fmt.Sprintf("/Ac/L%d/Power", index+1),
					Value: power,
				}
			}
		})

		return updates, nil

	case "voltages":
		voltages, err := parseFloatArray(payload)
		if err != nil {
			m.fail()
			return nil, fmt.Errorf("unable to decode voltages: %w", err)
		}

		if len(voltages) == 0 {
			m.fail()
			return nil, fmt.Errorf("voltages array is empty")
		}

		var sum float64
		for _, voltage := range voltages {
			sum += voltage
		}
		average := sum / float64(len(voltages))

		m.update(func(t *Telemetry) { t.Voltage = average })

		return []driver.Update{{Path: "/Ac/Voltage", Value: average}}, nil

	case "daily_imported":
		energy, err := parseFloat(payload)
		if err != nil {
			m.fail()
			return nil, fmt.Errorf("unable to decode daily imported energy: %w", err)
		}

		m.update(func(t *Telemetry) { t.EnergyForward = energy })

		return []driver.Update{{Path: "/Ac/Energy/Forward", Value: energy}}, nil

	case "evse_current":
		current, err := parseFloat(payload)
		if err != nil {
			m.fail()
			return nil, fmt.Errorf("unable to decode EVSE current: %w", err)
		}

		m.update(func(t *Telemetry) { t.Current = current })

		return []driver.Update{{Path: "/Current", Value: current}}, nil

	case "plug_state":
		plugged := parseBool(payload)

		var status driver.Status
		m.update(func(t *Telemetry) {
			t.Plugged = plugged
			status = deriveStatus(t)
		})

		return []driver.Update{{Path: "/Status", Value: int(status)}}, nil

	case "charge_state":
		charging := parseBool(payload)

		var status driver.Status
		m.update(func(t *Telemetry) {
			t.Charging = charging
			status = deriveStatus(t)
		})

		startStop := 0
		if charging {
			startStop = 1
		}

		return []driver.Update{
			{Path: "/StartStop", Value: startStop},
			{Path: "/Status", Value: int(status)},
		}, nil

	default:
		m.touch()
		return nil, nil
	}
}

// HandleChargeMode decodes the global ChargeMode topic. OpenWB mode 2 is
// PV charging, which maps to auto; everything else is manual.
func (m *Manager) HandleChargeMode(payload []byte) ([]driver.Update, error) {
	rawMode, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil {
		m.fail()
		return nil, fmt.Errorf("unable to decode ChargeMode: %w", err)
	}

	mode := driver.ModeManual
	if rawMode == 2 {
		mode = driver.ModeAuto
	}

	m.update(func(t *Telemetry) { t.Mode = mode })

	return []driver.Update{{Path: "/Mode", Value: mode}}, nil
}

func parseFloat(payload []byte) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
}

func parseFloatArray(payload []byte) ([]float64, error) {
	var values []float64
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func parseBool(payload []byte) bool {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "true", "1":
		return true
	default:
		return false
	}
}
