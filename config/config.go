package config

import (
	"strings"

	"github.com/rs/zerolog"
)

// BrokerPlaceholder is the broker address shipped in config.sample.ini.
// The loader refuses to start with it so a copied-but-unedited config
// fails loudly instead of hammering DNS.
const BrokerPlaceholder = "IP_ADDR_OR_FQDN"

const (
	PositionACOutput = 0
	PositionACInput1 = 1
	PositionACInput2 = 2
)

type Config struct {
	Default DefaultConfig `ini:"DEFAULT"`
	Wallbox WallboxConfig `ini:"WALLBOX"`
	MQTT    MQTTConfig    `ini:"MQTT"`
}

type DefaultConfig struct {
	// Logging is one of ERROR, WARNING, INFO, DEBUG (case-insensitive).
	Logging        string `ini:"logging"`
	DeviceName     string `ini:"device_name"`
	DeviceInstance int    `ini:"device_instance"`
	// Timeout is the MQTT inactivity watchdog in seconds, 0 disables it.
	Timeout int `ini:"timeout"`
	// MetricsAddress enables the Prometheus listener when non-empty.
	MetricsAddress string `ini:"metrics_address"`
}

type WallboxConfig struct {
	// MaxCurrent in ampere, published as /MaxCurrent.
	MaxCurrent int `ini:"max"`
	// Position of the AC port: 0 = output, 1 = input 1, 2 = input 2.
	Position int `ini:"position"`
	// Chargepoint is the OpenWB chargepoint id in the topic tree.
	Chargepoint int `ini:"chargepoint"`
}

type MQTTConfig struct {
	BrokerAddress string `ini:"broker_address"`
	BrokerPort    int    `ini:"broker_port"`
	TLSEnabled    bool   `ini:"tls_enabled"`
	TLSPathToCA   string `ini:"tls_path_to_ca"`
	TLSInsecure   bool   `ini:"tls_insecure"`
	Username      string `ini:"username"`
	Password      string `ini:"password"`
	Topic         string `ini:"topic"`
}

// Default returns the documented fallback for every key. Parse maps the
// INI file over this, so commented-out keys keep these values.
func Default() Config {
	return Config{
		Default: DefaultConfig{
			Logging:        "WARNING",
			DeviceName:     "MQTT OpenWB",
			DeviceInstance: 53,
			Timeout:        60,
		},
		Wallbox: WallboxConfig{
			MaxCurrent:  16,
			Position:    PositionACOutput,
			Chargepoint: 5,
		},
		MQTT: MQTTConfig{
			BrokerPort: 1883,
			Topic:      "openWB/#",
		},
	}
}

var logLevels = map[string]zerolog.Level{
	"ERROR":   zerolog.ErrorLevel,
	"WARNING": zerolog.WarnLevel,
	"INFO":    zerolog.InfoLevel,
	"DEBUG":   zerolog.DebugLevel,
}

// Level translates the logging key into a zerolog level.
func (c *DefaultConfig) Level() (zerolog.Level, bool) {
	level, ok := logLevels[strings.ToUpper(c.Logging)]
	return level, ok
}

// TopicPrefix strips the wildcard from the configured topic, turning
// "openWB/#" into "openWB".
func (c *MQTTConfig) TopicPrefix() string {
	prefix := strings.TrimSuffix(c.Topic, "#")
	return strings.TrimSuffix(prefix, "/")
}
