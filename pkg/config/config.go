package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/reader"
	"github.com/dcps-reader/dcps-go/pkg/writerinfo"
)

// ErrInvalidConfig is returned for configurations that fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the top-level configuration file.
type Config struct {
	Reader  ReaderConfig  `yaml:"reader"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ReaderConfig configures the local DataReader.
type ReaderConfig struct {
	// ID is the reader GUID. Empty generates one.
	ID string `yaml:"id"`

	// LeaseDuration is the default writer liveliness lease. Zero disables
	// expiry.
	LeaseDuration time.Duration `yaml:"lease_duration"`

	// HistoricGracePeriod bounds a historic wait.
	HistoricGracePeriod time.Duration `yaml:"historic_grace_period"`

	// ExclusiveOwnership enables exclusive ownership arbitration.
	ExclusiveOwnership bool `yaml:"exclusive_ownership"`
}

// LoggingConfig configures operational and protocol logging.
type LoggingConfig struct {
	// Level is the slog level name: debug, info, warn or error.
	Level string `yaml:"level"`

	// ProtocolLog is the path of the CBOR protocol event log. Empty
	// disables it.
	ProtocolLog string `yaml:"protocol_log"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddr is the host:port to serve /metrics on. Empty disables it.
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Reader: ReaderConfig{
			HistoricGracePeriod: writerinfo.DefaultHistoricGracePeriod,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Parse decodes YAML data over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.Reader.ID != "" {
		if _, err := ident.Parse(c.Reader.ID); err != nil {
			return fmt.Errorf("%w: reader.id: %v", ErrInvalidConfig, err)
		}
	}
	if c.Reader.LeaseDuration < 0 {
		return fmt.Errorf("%w: reader.lease_duration must not be negative", ErrInvalidConfig)
	}
	if c.Reader.HistoricGracePeriod < 0 {
		return fmt.Errorf("%w: reader.historic_grace_period must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	if c.Metrics.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.ListenAddr); err != nil {
			return fmt.Errorf("%w: metrics.listen_addr: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// SlogLevel parses Level. An empty level is info.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// ReaderID returns the configured reader GUID, generating one if unset.
func (c ReaderConfig) ReaderID() ident.GUID {
	if c.ID == "" {
		return ident.New()
	}
	id, err := ident.Parse(c.ID)
	if err != nil {
		return ident.New()
	}
	return id
}

// ReaderOptions converts the reader section into reader.Config. Logging and
// scheduling collaborators are left for the caller to set.
func (c ReaderConfig) ReaderOptions() reader.Config {
	return reader.Config{
		LeaseDuration:       c.LeaseDuration,
		HistoricGracePeriod: c.HistoricGracePeriod,
		ExclusiveOwnership:  c.ExclusiveOwnership,
	}
}
