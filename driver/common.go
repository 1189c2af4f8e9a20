package driver

import (
	"fmt"
	"strings"
)

const (
	StatusDisconnected Status = iota
	StatusConnected
	StatusCharging
	StatusCharged
	StatusWaitingForSun
	StatusWaitingForRfid
	StatusWaitingForStart
	StatusLowSoc
)

// Status mirrors the value set of the /Status path on
// com.victronenergy.evcharger services.
type Status uint

//go:generate enumer -type=Status -trimprefix=Status

func StatusHelpString() string {
	out := make([]string, len(StatusValues()))

	for index, status := range StatusValues() {
		out[index] = fmt.Sprintf("%v (%v)", int(status), status.String())
	}

	return "Available values: " + strings.Join(out, ", ")
}

// Charge modes of the /Mode path. OpenWB's global ChargeMode is collapsed
// onto these: pv_charging maps to auto, everything else to manual.
const (
	ModeManual int = iota
	ModeAuto
	ModeScheduled
)

// Update is a single D-Bus path change decoded from an MQTT message.
type Update struct {
	Path  string
	Value interface{}
}

// Text formatters for the GetText side of BusItem paths.

func FormatWatts(v interface{}) string {
	return fmt.Sprintf("%.1fW", toFloat(v))
}

func FormatAmps(v interface{}) string {
	return fmt.Sprintf("%.1fA", toFloat(v))
}

func FormatVolts(v interface{}) string {
	return fmt.Sprintf("%.1fV", toFloat(v))
}

func FormatKwh(v interface{}) string {
	return fmt.Sprintf("%.2fkWh", toFloat(v))
}

func FormatPlain(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

func toFloat(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	case int32:
		return float64(value)
	case int64:
		return float64(value)
	case uint:
		return float64(value)
	default:
		return 0
	}
}
