package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			InstanceID: "test",
			HTTPListen: ":8080",
			LogLevel:   "info",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: TopicsConfig{
				Rib:     "mrt-ribs",
				State:   "mrt-bgp-states",
				Message: "mrt-bgp-messages",
			},
		},
		Postgres: PostgresConfig{
			DSN:           "postgres://localhost/test",
			MaxConns:      10,
			MinConns:      2,
			RetentionDays: 30,
		},
		Decode: DecodeConfig{
			ConcurrentFiles: 4,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidate_DisabledSinksAreValid(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Brokers = nil
	cfg.Kafka.Topics = TopicsConfig{}
	cfg.Postgres.DSN = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled store/publish sinks must be valid, got: %v", err)
	}
	if cfg.StorageEnabled() {
		t.Fatal("StorageEnabled should be false with empty DSN")
	}
	if cfg.PublishEnabled() {
		t.Fatal("PublishEnabled should be false with no brokers")
	}
}

func TestValidate_BrokersWithoutTopics(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Topics = TopicsConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when brokers is set but topics are empty")
	}
}

func TestValidate_BrokersWithPartialTopics(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Topics.Message = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when brokers is set but kafka.topics.message is empty")
	}
}

func TestValidate_ConcurrentFilesZero(t *testing.T) {
	cfg := validConfig()
	cfg.Decode.ConcurrentFiles = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for concurrent_files = 0")
	}
}

func TestValidate_MaxConnsZeroWithStorageEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.MaxConns = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max_conns = 0 when storage is enabled")
	}
}

func TestValidate_MinConnsNegative(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.MinConns = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative min_conns")
	}
}

func TestValidate_RetentionDaysZero(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.RetentionDays = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for retention_days = 0 when storage is enabled")
	}
}

func writeMinimalYAML(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	data := `
kafka:
  brokers:
    - "localhost:9092"
  topics:
    rib: "mrt-ribs"
    state: "mrt-bgp-states"
    message: "mrt-bgp-messages"
postgres:
  dsn: "postgres://localhost/test"
`
	if err := os.WriteFile(p, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_EnvOverrideDSN(t *testing.T) {
	p := writeMinimalYAML(t)
	t.Setenv("MRTDECODE_POSTGRES__DSN", "postgres://envhost/envdb")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Postgres.DSN != "postgres://envhost/envdb" {
		t.Errorf("expected DSN from env, got %q", cfg.Postgres.DSN)
	}
}

func TestLoad_EnvOverrideLogLevel(t *testing.T) {
	p := writeMinimalYAML(t)
	t.Setenv("MRTDECODE_SERVICE__LOG_LEVEL", "debug")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service.LogLevel != "debug" {
		t.Errorf("expected log_level 'debug' from env, got %q", cfg.Service.LogLevel)
	}
}

func TestLoad_EnvEmptyTopicFailsValidation(t *testing.T) {
	p := writeMinimalYAML(t)
	t.Setenv("MRTDECODE_KAFKA__TOPICS__RIB", "")

	_, err := Load(p)
	if err == nil {
		t.Fatal("expected validation error for empty kafka topics.rib via env")
	}
}
