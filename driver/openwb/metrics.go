package openwb

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"rbf.dev/openwb_dbus_bridge/driver"
)

var (
	descStatus = prometheus.NewDesc(
		"evcharger_status",
		"Charge point status as published on /Status. "+driver.StatusHelpString(),
		nil,
		nil,
	)
	descAcPower = prometheus.NewDesc(
		"evcharger_ac_power_watts",
		"Total AC power drawn by the charge point.",
		nil,
		nil,
	)
	descPhasePower = prometheus.NewDesc(
		"evcharger_phase_power_watts",
		"AC power drawn on an individual phase.",
		[]string{"phase"},
		nil,
	)
	descVoltage = prometheus.NewDesc(
		"evcharger_ac_voltage_volts",
		"AC voltage averaged over the connected phases.",
		nil,
		nil,
	)
	descEnergyForward = prometheus.NewDesc(
		"evcharger_energy_forward_kwh",
		"Energy delivered to the vehicle today.",
		nil,
		nil,
	)
	descCurrent = prometheus.NewDesc(
		"evcharger_charge_current_amps",
		"Charging current reported by the EVSE.",
		nil,
		nil,
	)
	descMode = prometheus.NewDesc(
		"evcharger_mode",
		"Charge mode as published on /Mode. 0 = manual, 1 = auto, 2 = scheduled.",
		nil,
		nil,
	)
	descPlugged = prometheus.NewDesc(
		"evcharger_plugged",
		"Whether a vehicle is plugged in.",
		nil,
		nil,
	)
	descPVPower = prometheus.NewDesc(
		"pv_power_watts",
		"Photovoltaic power reported by the OpenWB installation.",
		nil,
		nil,
	)
	descMessagesHandled = prometheus.NewDesc(
		"mqtt_messages_handled_total",
		"MQTT messages decoded into telemetry.",
		nil,
		nil,
	)
	descDecodeErrors = prometheus.NewDesc(
		"mqtt_decode_errors_total",
		"MQTT messages that failed to decode.",
		nil,
		nil,
	)
	gaugeDescriptors = []*prometheus.Desc{
		descStatus,
		descAcPower,
		descPhasePower,
		descVoltage,
		descEnergyForward,
		descCurrent,
		descMode,
		descPlugged,
		descPVPower,
	}
)

type TelemetryProvider interface {
	Snapshot() (Telemetry, bool)
	Counts() (handled, errors uint64)
}

type collector struct {
	provider TelemetryProvider
}

func toBool(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func (collector collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(collector, ch)
}

func (collector collector) Collect(ch chan<- prometheus.Metric) {
	handled, errors := collector.provider.Counts()
	ch <- prometheus.MustNewConstMetric(descMessagesHandled, prometheus.CounterValue, float64(handled))
	ch <- prometheus.MustNewConstMetric(descDecodeErrors, prometheus.CounterValue, float64(errors))

	telemetry, ok := collector.provider.Snapshot()

	if !ok {
		for _, desc := range gaugeDescriptors {
			ch <- prometheus.NewInvalidMetric(desc, fmt.Errorf("no telemetry received yet from this chargepoint"))
		}
		return
	}

	ch <- prometheus.MustNewConstMetric(descStatus, prometheus.GaugeValue, float64(telemetry.Status))
	ch <- prometheus.MustNewConstMetric(descAcPower, prometheus.GaugeValue, telemetry.AcPower)
	for index, power := range telemetry.PhasePower {
		ch <- prometheus.MustNewConstMetric(descPhasePower, prometheus.GaugeValue, power, fmt.Sprintf("%d", index+1))
	}
	ch <- prometheus.MustNewConstMetric(descVoltage, prometheus.GaugeValue, telemetry.Voltage)
	ch <- prometheus.MustNewConstMetric(descEnergyForward, prometheus.GaugeValue, telemetry.EnergyForward)
	ch <- prometheus.MustNewConstMetric(descCurrent, prometheus.GaugeValue, telemetry.Current)
	ch <- prometheus.MustNewConstMetric(descMode, prometheus.GaugeValue, float64(telemetry.Mode))
	ch <- prometheus.MustNewConstMetric(descPlugged, prometheus.GaugeValue, toBool(telemetry.Plugged))
	ch <- prometheus.MustNewConstMetric(descPVPower, prometheus.GaugeValue, telemetry.PVPower)
}

func RegisterCollector(provider TelemetryProvider, reg prometheus.Registerer) {
	collector := collector{provider}
	reg.MustRegister(collector)
}
