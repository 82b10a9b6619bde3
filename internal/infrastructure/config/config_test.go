package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
parser:
  workers: 8
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
export:
  path: "out.json"
  pretty: false
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
  topic: "diag/batches"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Parser.Workers != 8 {
		t.Errorf("Parser.Workers = %d, want 8", cfg.Parser.Workers)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.Export.Path != "out.json" {
		t.Errorf("Export.Path = %q, want %q", cfg.Export.Path, "out.json")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
database:
  path: ""
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty database.path, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Parser:   ParserConfig{Workers: 4},
				Database: DatabaseConfig{Path: "/data/scan.db"},
				MQTT:     MQTTConfig{QoS: 1},
			},
			wantErr: false,
		},
		{
			name: "zero workers",
			config: &Config{
				Parser:   ParserConfig{Workers: 0},
				Database: DatabaseConfig{Path: "/data/scan.db"},
				MQTT:     MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "missing database path",
			config: &Config{
				Parser:   ParserConfig{Workers: 4},
				Database: DatabaseConfig{Path: ""},
				MQTT:     MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "invalid QoS",
			config: &Config{
				Parser:   ParserConfig{Workers: 4},
				Database: DatabaseConfig{Path: "/data/scan.db"},
				MQTT:     MQTTConfig{QoS: 3},
			},
			wantErr: true,
		},
		{
			name: "mqtt enabled without topic",
			config: &Config{
				Parser:   ParserConfig{Workers: 4},
				Database: DatabaseConfig{Path: "/data/scan.db"},
				MQTT: MQTTConfig{
					Enabled: true,
					Broker:  MQTTBrokerConfig{Host: "localhost"},
					QoS:     1,
				},
			},
			wantErr: true,
		},
		{
			name: "mqtt enabled fully specified",
			config: &Config{
				Parser:   ParserConfig{Workers: 4},
				Database: DatabaseConfig{Path: "/data/scan.db"},
				MQTT: MQTTConfig{
					Enabled: true,
					Broker:  MQTTBrokerConfig{Host: "localhost"},
					QoS:     1,
					Topic:   "diag/batches",
				},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("ODXSCAN_DATABASE_PATH", "/custom/path.db")
	t.Setenv("ODXSCAN_EXPORT_PATH", "/custom/out.json")
	t.Setenv("ODXSCAN_PARSER_WORKERS", "16")
	t.Setenv("ODXSCAN_MQTT_HOST", "mqtt.example.com")
	t.Setenv("ODXSCAN_MQTT_USERNAME", "testuser")
	t.Setenv("ODXSCAN_MQTT_PASSWORD", "testpass")
	t.Setenv("ODXSCAN_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.Export.Path != "/custom/out.json" {
		t.Errorf("Export.Path = %q, want %q", cfg.Export.Path, "/custom/out.json")
	}

	if cfg.Parser.Workers != 16 {
		t.Errorf("Parser.Workers = %d, want 16", cfg.Parser.Workers)
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.Parser.Workers < 1 {
		t.Errorf("defaultConfig Parser.Workers = %d, want >= 1", cfg.Parser.Workers)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig does not validate: %v", err)
	}
}
