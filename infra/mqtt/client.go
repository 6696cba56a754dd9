package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker           string      `json:"broker"`
	ClientID         string      `json:"client_id"`
	Username         string      `json:"username"`
	Password         string      `json:"password"`
	UseTLS           bool        `json:"use_tls"`
	ClientCert       string      `json:"client_cert"`
	ClientKey        string      `json:"client_key"`
	CABundle         string      `json:"ca_bundle"`
	AuthMethod       string      `json:"auth_method"`
	CleanSession     bool        `json:"clean_session"`
	KeepAliveS       int         `json:"keep_alive_s"`
	ConnectTimeoutMS int         `json:"connect_timeout_ms"`
	LWTTopic         string      `json:"lwt_topic"`
	LWTPayload       string      `json:"lwt_payload"`
	LWTQoS           byte        `json:"lwt_qos"`
	LWTRetain        bool        `json:"lwt_retain"`
	TLSConfig        *tls.Config `json:"-"`
}

// SetDefaults fills unset fields. An empty client id becomes a random one so
// several dashboards can share a broker.
func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = "tcp://localhost:1883"
	}
	if c.ClientID == "" {
		c.ClientID = NewClientID("iqrfdash")
	}
	if c.KeepAliveS <= 0 {
		c.KeepAliveS = 30
	}
	if c.ConnectTimeoutMS <= 0 {
		c.ConnectTimeoutMS = 5000
	}
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	if _, err := url.Parse(c.Broker); err != nil {
		return fmt.Errorf("mqtt broker: %w", err)
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("mqtt auth_method %q not supported", c.AuthMethod)
	}
	if c.LWTQoS > 2 {
		return errors.New("mqtt lwt_qos must be 0, 1 or 2")
	}
	return nil
}

// NewClientID returns prefix followed by a random suffix.
func NewClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// Endpoint returns host:port of the configured broker.
func (c Config) Endpoint() string {
	u, err := url.Parse(c.Broker)
	if err != nil || u.Host == "" {
		return c.Broker
	}
	return u.Host
}

// NewClientOptions builds mqtt client options from Config. Automatic
// reconnection is disabled: the session decides when to reconnect.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(false)
	opts.SetCleanSession(cfg.CleanSession)
	if cfg.KeepAliveS > 0 {
		opts.SetKeepAlive(time.Duration(cfg.KeepAliveS) * time.Second)
	}
	if cfg.ConnectTimeoutMS > 0 {
		opts.SetConnectTimeout(time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond)
	}
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
// Without a client certificate only the CA bundle is used.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires ca_bundle")
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s: no certificates", c.CABundle)
	}
	cfg := &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	if c.ClientCert != "" || c.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	} else if c.AuthMethod == "certificate" || c.AuthMethod == "both" {
		return nil, fmt.Errorf("auth_method %s requires client_cert and client_key", c.AuthMethod)
	}
	return cfg, nil
}
