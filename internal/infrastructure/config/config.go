package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the diagnostic scanner.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Parser   ParserConfig   `yaml:"parser"`
	Database DatabaseConfig `yaml:"database"`
	Export   ExportConfig   `yaml:"export"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ParserConfig contains batch parsing settings.
type ParserConfig struct {
	// Workers bounds concurrent document parsing within one batch.
	Workers int `yaml:"workers"`

	// SharedIndex spans one identifier index across the whole batch
	// instead of one per document. Relaxes per-document identifier
	// uniqueness; off by default.
	SharedIndex bool `yaml:"shared_index"`
}

// DatabaseConfig contains SQLite database settings for the result store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// ExportConfig contains JSON export settings.
type ExportConfig struct {
	// Path is the output file; "-" writes to stdout.
	Path string `yaml:"path"`

	// Pretty enables indented output.
	Pretty bool `yaml:"pretty"`
}

// MQTTConfig contains MQTT broker connection settings for batch-summary
// notifications.
type MQTTConfig struct {
	Enabled bool                `yaml:"enabled"`
	Broker  MQTTBrokerConfig    `yaml:"broker"`
	Auth    MQTTAuthConfig      `yaml:"auth"`
	QoS     int                 `yaml:"qos"`
	Topic   string              `yaml:"topic"`
	Retain  bool                `yaml:"retain"`
	Timeout MQTTTimeoutConfig   `yaml:"timeout"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTTimeoutConfig contains MQTT operation timeouts, in seconds.
type MQTTTimeoutConfig struct {
	Connect int `yaml:"connect"`
	Publish int `yaml:"publish"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings with rotation.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ODXSCAN_SECTION_KEY
// For example: ODXSCAN_DATABASE_PATH, ODXSCAN_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults. The defaults
// alone are valid, so the scanner runs without any config file.
func defaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			Workers: 4,
		},
		Database: DatabaseConfig{
			Path:        "./data/odxscan.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Export: ExportConfig{
			Path:   "-",
			Pretty: true,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "odxscan",
			},
			QoS:   1,
			Topic: "odxscan/batches",
			Timeout: MQTTTimeoutConfig{
				Connect: 10,
				Publish: 5,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Default returns the built-in configuration, used when no file is given.
func Default() *Config {
	return defaultConfig()
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ODXSCAN_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ODXSCAN_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ODXSCAN_EXPORT_PATH"); v != "" {
		cfg.Export.Path = v
	}
	if v := os.Getenv("ODXSCAN_PARSER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Parser.Workers = n
		}
	}

	if v := os.Getenv("ODXSCAN_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ODXSCAN_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ODXSCAN_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("ODXSCAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Parser.Workers < 1 {
		errs = append(errs, "parser.workers must be at least 1")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Topic == "" {
			errs = append(errs, "mqtt.topic is required when mqtt is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
