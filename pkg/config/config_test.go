package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dcps-reader/dcps-go/pkg/ident"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Reader.HistoricGracePeriod != 10*time.Second {
		t.Errorf("HistoricGracePeriod = %v, want 10s", cfg.Reader.HistoricGracePeriod)
	}
	if cfg.Reader.LeaseDuration != 0 {
		t.Errorf("LeaseDuration = %v, want 0", cfg.Reader.LeaseDuration)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
reader:
  id: 01020304.05060708.090a0b0c.00000107
  lease_duration: 1500ms
  exclusive_ownership: true
logging:
  level: debug
  protocol_log: reader.dlog
metrics:
  listen_addr: ":9464"
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Reader.LeaseDuration != 1500*time.Millisecond {
		t.Errorf("LeaseDuration = %v, want 1.5s", cfg.Reader.LeaseDuration)
	}
	if !cfg.Reader.ExclusiveOwnership {
		t.Error("ExclusiveOwnership = false, want true")
	}
	if cfg.Reader.HistoricGracePeriod != 10*time.Second {
		t.Errorf("HistoricGracePeriod = %v, want default 10s", cfg.Reader.HistoricGracePeriod)
	}
	if cfg.Logging.ProtocolLog != "reader.dlog" {
		t.Errorf("ProtocolLog = %q", cfg.Logging.ProtocolLog)
	}
	if cfg.Metrics.ListenAddr != ":9464" {
		t.Errorf("ListenAddr = %q", cfg.Metrics.ListenAddr)
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v; want debug", level, err)
	}

	want := ident.MustParse("01020304.05060708.090a0b0c.00000107")
	if got := cfg.Reader.ReaderID(); got != want {
		t.Errorf("ReaderID() = %v, want %v", got, want)
	}

	opts := cfg.Reader.ReaderOptions()
	if opts.LeaseDuration != cfg.Reader.LeaseDuration || !opts.ExclusiveOwnership {
		t.Errorf("ReaderOptions() = %+v", opts)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad id", "reader:\n  id: nope\n"},
		{"negative lease", "reader:\n  lease_duration: -1s\n"},
		{"negative grace", "reader:\n  historic_grace_period: -5s\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"bad listen addr", "metrics:\n  listen_addr: nine-four-six-four\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Parse() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("reader: [unclosed"))
	if err == nil {
		t.Fatal("Parse succeeded on malformed YAML")
	}
	if errors.Is(err, ErrInvalidConfig) {
		t.Error("syntax errors are not validation errors")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reader.yaml")
	if err := os.WriteFile(path, []byte("reader:\n  lease_duration: 3s\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Reader.LeaseDuration != 3*time.Second {
		t.Errorf("LeaseDuration = %v, want 3s", cfg.Reader.LeaseDuration)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load on a missing file succeeded")
	}
}

func TestReaderIDGenerated(t *testing.T) {
	var rc ReaderConfig
	id := rc.ReaderID()
	if id.IsUnknown() {
		t.Error("generated reader ID is unknown")
	}
}
