package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

// Config is the optional runtime configuration for cmd/mrtdecode. The
// core mrt package never depends on this: per spec §1 the decoder takes
// its options as plain Go arguments, this is ambient CLI wiring only.
type Config struct {
	Service ServiceConfig  `koanf:"service"`
	Kafka   KafkaConfig    `koanf:"kafka"`
	Postgres PostgresConfig `koanf:"postgres"`
	Decode  DecodeConfig   `koanf:"decode"`
}

type ServiceConfig struct {
	InstanceID string `koanf:"instance_id"`
	HTTPListen string `koanf:"http_listen"`
	LogLevel   string `koanf:"log_level"`
}

// KafkaConfig configures the optional publish sink. Brokers empty means
// publishing is disabled.
type KafkaConfig struct {
	Brokers  []string     `koanf:"brokers"`
	ClientID string       `koanf:"client_id"`
	TLS      TLSConfig    `koanf:"tls"`
	SASL     SASLConfig   `koanf:"sasl"`
	Topics   TopicsConfig `koanf:"topics"`
}

// TopicsConfig names the one topic each record kind is published to
// (internal/publish.Publisher keys each produce by record kind, never
// sharing a topic across kinds).
type TopicsConfig struct {
	Rib     string `koanf:"rib"`
	State   string `koanf:"state"`
	Message string `koanf:"message"`
}

type TLSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CAFile   string `koanf:"ca_file"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

type SASLConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Mechanism string `koanf:"mechanism"`
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`
}

// PostgresConfig configures the optional store sink. DSN empty means
// storage is disabled.
type PostgresConfig struct {
	DSN             string `koanf:"dsn"`
	MaxConns        int32  `koanf:"max_conns"`
	MinConns        int32  `koanf:"min_conns"`
	RetentionDays   int    `koanf:"retention_days"`
	CompressRaw     bool   `koanf:"compress_raw"`
}

type DecodeConfig struct {
	Verbose           bool `koanf:"verbose"`
	ConcurrentFiles   int  `koanf:"concurrent_files"`
	MaxExtraAttrBytes int  `koanf:"max_extra_attr_bytes"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// Overlay environment variables: MRTDECODE_KAFKA__BROKERS → kafka.brokers
	if err := k.Load(env.Provider("MRTDECODE_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "MRTDECODE_")
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "__", ".")
		return s
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}

	cfg := &Config{
		Service: ServiceConfig{
			InstanceID: "mrt-decoder-1",
			HTTPListen: ":8080",
			LogLevel:   "info",
		},
		Kafka: KafkaConfig{
			ClientID: "mrt-decoder",
			Topics: TopicsConfig{
				Rib:     "mrt-ribs",
				State:   "mrt-bgp-states",
				Message: "mrt-bgp-messages",
			},
		},
		Postgres: PostgresConfig{
			MaxConns:      20,
			MinConns:      2,
			RetentionDays: 30,
			CompressRaw:   true,
		},
		Decode: DecodeConfig{
			ConcurrentFiles: 4,
		},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Decode.ConcurrentFiles <= 0 {
		return fmt.Errorf("config: decode.concurrent_files must be > 0 (got %d)", c.Decode.ConcurrentFiles)
	}
	if c.Postgres.DSN != "" {
		if c.Postgres.MaxConns <= 0 {
			return fmt.Errorf("config: postgres.max_conns must be > 0 (got %d)", c.Postgres.MaxConns)
		}
		if c.Postgres.MinConns < 0 {
			return fmt.Errorf("config: postgres.min_conns must be >= 0 (got %d)", c.Postgres.MinConns)
		}
		if c.Postgres.RetentionDays <= 0 {
			return fmt.Errorf("config: postgres.retention_days must be > 0 (got %d)", c.Postgres.RetentionDays)
		}
	}
	if len(c.Kafka.Brokers) > 0 {
		if c.Kafka.Topics.Rib == "" || c.Kafka.Topics.State == "" || c.Kafka.Topics.Message == "" {
			return fmt.Errorf("config: kafka.topics.rib, kafka.topics.state, and kafka.topics.message are all required when kafka.brokers is set")
		}
	}
	return nil
}

// StorageEnabled reports whether a Postgres sink should be constructed.
func (c *Config) StorageEnabled() bool { return c.Postgres.DSN != "" }

// PublishEnabled reports whether a Kafka sink should be constructed.
func (c *Config) PublishEnabled() bool { return len(c.Kafka.Brokers) > 0 }

// BuildTLSConfig creates a *tls.Config from the Kafka TLS settings. Returns nil if TLS is disabled.
func (k *KafkaConfig) BuildTLSConfig() (*tls.Config, error) {
	if !k.TLS.Enabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{}
	if k.TLS.CAFile != "" {
		caPEM, err := os.ReadFile(k.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsCfg.RootCAs = pool
	}
	if k.TLS.CertFile != "" && k.TLS.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(k.TLS.CertFile, k.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// BuildSASLMechanism creates a SASL mechanism from the Kafka SASL settings. Returns nil if SASL is disabled.
func (k *KafkaConfig) BuildSASLMechanism() sasl.Mechanism {
	if !k.SASL.Enabled {
		return nil
	}
	switch strings.ToUpper(k.SASL.Mechanism) {
	case "PLAIN":
		return plain.Auth{User: k.SASL.Username, Pass: k.SASL.Password}.AsMechanism()
	default:
		return nil
	}
}
