package notify

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/CreativeSoln/refactored-potato/internal/infrastructure/config"
	"github.com/CreativeSoln/refactored-potato/internal/infrastructure/logging"
	"github.com/CreativeSoln/refactored-potato/internal/loader"
)

// Connection constants.
const (
	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// disconnectQuiesce is the time to wait for pending operations on
	// disconnect, in milliseconds.
	disconnectQuiesce = 1000

	// maxPayloadSize bounds summary payloads; a summary is a few hundred
	// bytes, anything near this limit indicates a bug.
	maxPayloadSize = 1 << 20

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Summary is the batch completion payload published after a scan.
type Summary struct {
	CompletedAt string `json:"completedAt"`

	// Inputs and Skipped count the batch's documents.
	Inputs  int `json:"inputs"`
	Skipped int `json:"skipped"`

	// SkippedNames lists the skipped documents for quick triage.
	SkippedNames []string `json:"skippedNames,omitempty"`

	Layers   int `json:"layers"`
	Services int `json:"services"`
	Params   int `json:"params"`
}

// Summarize reduces a batch result to its publishable summary.
func Summarize(res *loader.Result) Summary {
	s := Summary{
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
		Inputs:      len(res.Inputs),
		Skipped:     len(res.Skipped),
	}
	for _, sk := range res.Skipped {
		s.SkippedNames = append(s.SkippedNames, sk.Name)
	}
	if res.Database != nil {
		for _, l := range res.Database.Layers() {
			s.Layers++
			s.Services += len(l.Services)
		}
		s.Params = len(res.Database.Params)
	}
	return s
}

// Publisher is a short-lived MQTT client for batch summaries.
type Publisher struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	log    *logging.Logger
}

// Connect establishes the broker connection from configuration. It
// returns ErrDisabled when notifications are switched off, so callers
// can treat that case as a silent no-op.
func Connect(cfg config.MQTTConfig, log *logging.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if log == nil {
		log = logging.Default()
	}

	opts := buildClientOptions(cfg)
	client := pahomqtt.NewClient(opts)

	timeout := time.Duration(cfg.Timeout.Connect) * time.Second
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Publisher{client: client, cfg: cfg, log: log}, nil
}

// Publish sends one summary to the configured topic.
func (p *Publisher) Publish(s Summary) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes",
			ErrPublishFailed, len(payload), maxPayloadSize)
	}

	timeout := time.Duration(p.cfg.Timeout.Publish) * time.Second
	token := p.client.Publish(p.cfg.Topic, byte(p.cfg.QoS), p.cfg.Retain, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	p.log.Info("batch summary published", "topic", p.cfg.Topic, "qos", p.cfg.QoS)
	return nil
}

// Close disconnects from the broker after draining pending operations.
func (p *Publisher) Close() {
	if p.client == nil {
		return
	}
	p.client.Disconnect(disconnectQuiesce)
}

// buildClientOptions translates scanner configuration into paho options.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// A one-shot publisher has no use for broker-side session state or
	// background reconnect loops.
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(time.Duration(cfg.Timeout.Connect) * time.Second)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}
