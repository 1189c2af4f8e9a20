package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"rbf.dev/openwb_dbus_bridge/config"
)

const reconnectInterval = 15 * time.Second

// Handler receives every message arriving on a subscribed topic.
type Handler func(topic string, payload []byte)

type Client struct {
	client paho.Client
}

// New builds the paho client from the MQTT section of the config. The
// connection is not opened until Connect.
func New(cfg *config.MQTTConfig, deviceInstance int, topics Topics, handler Handler) (*Client, error) {
	options := paho.NewClientOptions().
		AddBroker(BrokerURL(cfg)).
		SetClientID(fmt.Sprintf("MqttOpenWB_%d", deviceInstance)).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(reconnectInterval).
		SetConnectRetry(true).
		SetConnectRetryInterval(reconnectInterval).
		SetDefaultPublishHandler(func(_ paho.Client, message paho.Message) {
			handler(message.Topic(), message.Payload())
		})

	if cfg.Username != "" {
		options.SetUsername(cfg.Username)
		options.SetPassword(cfg.Password)
	}

	if cfg.TLSEnabled {
		tlsConfig, err := tlsConfigFor(cfg)
		if err != nil {
			return nil, err
		}
		options.SetTLSConfig(tlsConfig)
	}

	options.SetOnConnectHandler(func(client paho.Client) {
		log.Info().Str("broker", BrokerURL(cfg)).Msg("MQTT connected to broker")

		token := client.SubscribeMultiple(topics.Subscriptions(), nil)
		go func() {
			if token.Wait(); token.Error() != nil {
				log.Error().Err(token.Error()).Msg("MQTT subscribe failed")
			}
		}()
	})

	options.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn().Err(err).Msg("MQTT disconnected, reconnecting")
	})

	return &Client{client: paho.NewClient(options)}, nil
}

// BrokerURL renders the broker address in the scheme paho expects,
// ssl:// when TLS is on and tcp:// otherwise.
func BrokerURL(cfg *config.MQTTConfig) string {
	scheme := "tcp"
	if cfg.TLSEnabled {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.BrokerAddress, cfg.BrokerPort)
}

func tlsConfigFor(cfg *config.MQTTConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.TLSInsecure,
	}

	if cfg.TLSPathToCA != "" {
		pem, err := os.ReadFile(cfg.TLSPathToCA)
		if err != nil {
			return nil, fmt.Errorf("unable to read CA certificate: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no usable certificate in %v", cfg.TLSPathToCA)
		}

		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// Connect blocks until the broker accepted the connection; with connect
// retry enabled paho keeps trying every reconnectInterval.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if token.Wait(); token.Error() != nil {
		return fmt.Errorf("unable to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

// Publish sends a write-back message to one of the set topics.
func (c *Client) Publish(topic, payload string) error {
	token := c.client.Publish(topic, 0, false, payload)
	if token.Wait(); token.Error() != nil {
		return fmt.Errorf("unable to publish to %v: %w", topic, token.Error())
	}
	return nil
}

func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
