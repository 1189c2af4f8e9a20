package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rbf.dev/openwb_dbus_bridge/config"
	"rbf.dev/openwb_dbus_bridge/driver"
	"rbf.dev/openwb_dbus_bridge/driver/openwb"
	"rbf.dev/openwb_dbus_bridge/mqtt"
	"rbf.dev/openwb_dbus_bridge/vedbus"
)

const (
	productId       = 0xFFFF
	productVersion  = "OpenWB2 Adapter"
	firmwareVersion = "2.x"
	hardwareVersion = 2
)

var reg = prometheus.NewRegistry()

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configPath := "config.ini"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	log.Debug().Str("path", configPath).Msg("Parsing configuration")

	cfg, err := config.Parse(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to parse config")
	}

	level, _ := cfg.Default.Level()
	zerolog.SetGlobalLevel(level)

	manager := openwb.NewManager()

	topics := mqtt.Topics{
		Prefix:      cfg.MQTT.TopicPrefix(),
		Chargepoint: cfg.Wallbox.Chargepoint,
	}

	serviceName := fmt.Sprintf("com.victronenergy.evcharger.mqtt_wb_%d", cfg.Default.DeviceInstance)

	service, err := vedbus.New(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to register D-Bus service")
	}
	defer service.Close()

	// The write handler closes over the client so D-Bus writes arriving
	// before the broker connection completes are rejected, not dropped
	// into a nil publish.
	var client *mqtt.Client

	writeHandler := func(path string, value interface{}) bool {
		return publishWrite(client, topics, path, value)
	}

	if err = registerPaths(service, cfg, writeHandler); err != nil {
		log.Fatal().Err(err).Msg("Unable to export D-Bus paths")
	}

	client, err = mqtt.New(&cfg.MQTT, cfg.Default.DeviceInstance, topics, func(topic string, payload []byte) {
		handleMessage(service, manager, topics, topic, payload)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to set up MQTT client")
	}

	if err = client.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Unable to connect to MQTT broker")
	}

	if cfg.Default.MetricsAddress != "" {
		log.Info().
			Str("MetricsAddress", cfg.Default.MetricsAddress).
			Msg("Registering metrics and starting Prometheus server")

		openwbRegisterer := prometheus.WrapRegistererWithPrefix("openwb_", reg)
		openwb.RegisterCollector(manager, openwbRegisterer)

		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.Default.MetricsAddress, nil); err != nil {
				log.Error().Err(err).Msg("Metrics listener failed")
			}
		}()
	}

	go watchdog(service, manager, time.Duration(cfg.Default.Timeout)*time.Second)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals

	log.Info().Msg("Shutting down")
	client.Disconnect()
}

// registerPaths exports the full com.victronenergy.evcharger surface:
// management paths, mandatory device paths and the telemetry paths fed
// from MQTT.
func registerPaths(service *vedbus.Service, cfg *config.Config, onWrite vedbus.WriteHandler) error {
	type pathSpec struct {
		path    string
		initial interface{}
		opts    []vedbus.ItemOption
	}

	watts := vedbus.WithText(driver.FormatWatts)
	amps := vedbus.WithText(driver.FormatAmps)

	paths := []pathSpec{
		{path: "/Mgmt/ProcessName", initial: os.Args[0]},
		{path: "/Mgmt/ProcessVersion", initial: productVersion},
		{path: "/Mgmt/Connection", initial: "MQTT " + cfg.MQTT.BrokerAddress},
		{path: "/DeviceInstance", initial: cfg.Default.DeviceInstance},
		{path: "/ProductId", initial: productId},
		{path: "/ProductName", initial: cfg.Default.DeviceName},
		{path: "/CustomName", initial: cfg.Default.DeviceName},
		{path: "/FirmwareVersion", initial: firmwareVersion},
		{path: "/HardwareVersion", initial: hardwareVersion},
		{path: "/Connected", initial: 1},
		{path: "/UpdateIndex", initial: 0},
		{path: "/Position", initial: cfg.Wallbox.Position},
		{path: "/MaxCurrent", initial: cfg.Wallbox.MaxCurrent, opts: []vedbus.ItemOption{amps}},
		{path: "/Status", initial: int(driver.StatusDisconnected)},
		{path: "/Ac/Power", initial: 0.0, opts: []vedbus.ItemOption{watts}},
		{path: "/Ac/L1/Power", initial: 0.0, opts: []vedbus.ItemOption{watts}},
		{path: "/Ac/L2/Power", initial: 0.0, opts: []vedbus.ItemOption{watts}},
		{path: "/Ac/L3/Power", initial: 0.0, opts: []vedbus.ItemOption{watts}},
		{path: "/Ac/Voltage", initial: 0.0, opts: []vedbus.ItemOption{vedbus.WithText(driver.FormatVolts)}},
		{path: "/Ac/Energy/Forward", initial: 0.0, opts: []vedbus.ItemOption{vedbus.WithText(driver.FormatKwh)}},
		{path: "/Current", initial: 0.0, opts: []vedbus.ItemOption{amps}},
		{path: "/Mode", initial: driver.ModeManual, opts: []vedbus.ItemOption{vedbus.Writeable(onWrite)}},
		{path: "/StartStop", initial: 0, opts: []vedbus.ItemOption{vedbus.Writeable(onWrite)}},
		{path: "/SetCurrent", initial: 0.0, opts: []vedbus.ItemOption{amps, vedbus.Writeable(onWrite)}},
	}

	for _, spec := range paths {
		if err := service.AddPath(spec.path, spec.initial, spec.opts...); err != nil {
			return err
		}
	}

	return nil
}

// handleMessage routes one MQTT message to the decoder and applies the
// resulting D-Bus updates.
func handleMessage(service *vedbus.Service, manager *openwb.Manager, topics mqtt.Topics, topic string, payload []byte) {
	var updates []driver.Update
	var err error

	switch {
	case topic == topics.ChargeMode():
		updates, err = manager.HandleChargeMode(payload)
	case strings.HasPrefix(topic, topics.ChargepointGet()):
		updates, err = manager.HandleChargepoint(strings.TrimPrefix(topic, topics.ChargepointGet()), payload)
	case strings.HasPrefix(topic, topics.PVGet()):
		updates, err = manager.HandlePV(strings.TrimPrefix(topic, topics.PVGet()), payload)
	default:
		return
	}

	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Unable to handle message")
		return
	}

	for _, update := range updates {
		log.Debug().Str("path", update.Path).Interface("value", update.Value).Msg("Updating D-Bus path")

		if err := service.Set(update.Path, update.Value); err != nil {
			log.Error().Err(err).Str("path", update.Path).Msg("Unable to update D-Bus path")
		}
	}
}

// publishWrite forwards a D-Bus write back onto the OpenWB set topics,
// mirroring what the OpenWB web UI would publish.
func publishWrite(client *mqtt.Client, topics mqtt.Topics, path string, value interface{}) bool {
	if client == nil {
		return false
	}

	var topic, payload string

	switch path {
	case "/StartStop":
		topic = topics.SetChargeMode()
		if truthy(value) {
			payload = "instant_charging"
		} else {
			payload = "stop"
		}
	case "/Mode":
		topic = topics.SetChargeMode()
		if asInt(value) == driver.ModeAuto {
			payload = "pv_charging"
		} else {
			payload = "instant_charging"
		}
	case "/SetCurrent":
		topic = topics.SetCurrent()
		payload = fmt.Sprintf("%v", value)
	default:
		return false
	}

	log.Info().Str("topic", topic).Str("payload", payload).Msg("Publishing D-Bus write to MQTT")

	if err := client.Publish(topic, payload); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Unable to publish write")
		return false
	}

	return true
}

// watchdog ticks once a second, rolling /UpdateIndex like velib does and
// exiting when the broker went quiet, so the service supervisor restarts
// the bridge with a clean slate.
func watchdog(service *vedbus.Service, manager *openwb.Manager, timeout time.Duration) {
	index := 0
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		index = (index + 1) % 256
		if err := service.Set("/UpdateIndex", index); err != nil {
			log.Error().Err(err).Msg("Unable to roll update index")
		}

		if timeout > 0 && time.Since(manager.LastSeen()) > timeout {
			log.Fatal().
				Dur("timeout", timeout).
				Time("lastSeen", manager.LastSeen()).
				Msg("No MQTT message within the timeout, exiting")
		}
	}
}

// D-Bus writes arrive as variants, so the numeric type depends on the
// caller. Normalize the handful of shapes dbus-spy and the GX send.

func truthy(value interface{}) bool {
	return asInt(value) != 0
}

func asInt(value interface{}) int {
	switch v := value.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return 0
	}
}
