package mqtt

import (
	"os"
	"path/filepath"
	"testing"

	"rbf.dev/openwb_dbus_bridge/config"
)

func TestBrokerURL(t *testing.T) {
	plain := &config.MQTTConfig{BrokerAddress: "192.0.2.10", BrokerPort: 1883}
	if got := BrokerURL(plain); got != "tcp://192.0.2.10:1883" {
		t.Errorf("unexpected broker URL: %q", got)
	}

	secure := &config.MQTTConfig{BrokerAddress: "broker.example.net", BrokerPort: 8883, TLSEnabled: true}
	if got := BrokerURL(secure); got != "ssl://broker.example.net:8883" {
		t.Errorf("unexpected broker URL: %q", got)
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{Prefix: "openWB", Chargepoint: 5}

	cases := map[string]string{
		topics.ChargepointGet():      "openWB/chargepoint/5/get/",
		topics.ChargepointWildcard(): "openWB/chargepoint/5/get/#",
		topics.ChargeMode():          "openWB/global/ChargeMode",
		topics.PVGet():               "openWB/pv/get/",
		topics.PVWildcard():          "openWB/pv/get/#",
		topics.SetChargeMode():       "openWB/chargepoint/5/set/chargemode",
		topics.SetCurrent():          "openWB/chargepoint/5/set/current",
	}

	for got, want := range cases {
		if got != want {
			t.Errorf("got topic %q, want %q", got, want)
		}
	}

	subscriptions := topics.Subscriptions()
	if len(subscriptions) != 3 {
		t.Fatalf("expected 3 subscriptions, got %v", subscriptions)
	}
	for _, topic := range []string{topics.ChargepointWildcard(), topics.ChargeMode(), topics.PVWildcard()} {
		if _, ok := subscriptions[topic]; !ok {
			t.Errorf("missing subscription for %q", topic)
		}
	}
}

func TestTLSConfig(t *testing.T) {
	insecure := &config.MQTTConfig{TLSEnabled: true, TLSInsecure: true}
	tlsConfig, err := tlsConfigFor(insecure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tlsConfig.InsecureSkipVerify || tlsConfig.RootCAs != nil {
		t.Fatalf("unexpected TLS config: %+v", tlsConfig)
	}

	missing := &config.MQTTConfig{TLSEnabled: true, TLSPathToCA: filepath.Join(t.TempDir(), "nope.pem")}
	if _, err = tlsConfigFor(missing); err == nil {
		t.Fatal("expected error for missing CA file")
	}

	garbage := filepath.Join(t.TempDir(), "ca.pem")
	if err = os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	invalid := &config.MQTTConfig{TLSEnabled: true, TLSPathToCA: garbage}
	if _, err = tlsConfigFor(invalid); err == nil {
		t.Fatal("expected error for unparseable CA file")
	}
}
