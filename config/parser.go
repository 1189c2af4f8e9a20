package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Parse reads the INI file at path and maps it over the documented
// defaults, so keys left commented out keep their fallback values.
func Parse(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open config file for reading: %w", err)
	}

	cfg := Default()
	if err = file.MapTo(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config file: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the driver cannot run with. Everything
// here maps to a key documented in config.sample.ini.
func (c *Config) Validate() error {
	if _, ok := c.Default.Level(); !ok {
		return fmt.Errorf("logging must be one of ERROR, WARNING, INFO, DEBUG, got %q", c.Default.Logging)
	}

	if c.Default.DeviceInstance < 0 {
		return fmt.Errorf("device_instance must not be negative, got %v", c.Default.DeviceInstance)
	}

	if c.Default.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Default.Timeout)
	}

	if c.Wallbox.MaxCurrent <= 0 {
		return fmt.Errorf("wallbox max current must be positive, got %v", c.Wallbox.MaxCurrent)
	}

	switch c.Wallbox.Position {
	case PositionACOutput, PositionACInput1, PositionACInput2:
	default:
		return fmt.Errorf("wallbox position must be 0 (output), 1 (input 1) or 2 (input 2), got %v", c.Wallbox.Position)
	}

	if c.Wallbox.Chargepoint < 0 {
		return fmt.Errorf("wallbox chargepoint must not be negative, got %v", c.Wallbox.Chargepoint)
	}

	if c.MQTT.BrokerAddress == "" || c.MQTT.BrokerAddress == BrokerPlaceholder {
		return fmt.Errorf("broker_address is not set, edit your config.ini (copied from config.sample.ini)")
	}

	if c.MQTT.BrokerPort < 1 || c.MQTT.BrokerPort > 65535 {
		return fmt.Errorf("broker_port must be within 1-65535, got %v", c.MQTT.BrokerPort)
	}

	if c.MQTT.TopicPrefix() == "" {
		return fmt.Errorf("topic must not be empty")
	}

	return nil
}
