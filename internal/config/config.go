// Package config handles configuration loading for the inbound server.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax).
//
// # Configuration Sections
//
//   - server: HTTP server settings (port, TLS, base path, timeouts)
//   - storage: message repository roots and write mode
//   - reliability: duplicate detection window
//   - logging: log level and format
//
// # Example Configuration
//
//	server:
//	  port: 8443
//	  basePath: "/peppol"
//	  tls:
//	    enabled: true
//	    certFile: /etc/ssl/server.crt
//	    keyFile: /etc/ssl/server.key
//	    clientCAFile: /etc/ssl/peppol-ap-ca.pem
//
//	storage:
//	  inboundRoot: ${PEPPOL_DATA}/inbound
//	  outboundRoot: ${PEPPOL_DATA}/outbound
//	  atomicWrites: true
//
//	reliability:
//	  duplicateWindow: 24h
//
//	logging:
//	  level: info
//	  format: json
//
// See [Load] for loading configuration from a file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Reliability ReliabilityConfig `yaml:"reliability"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         int           `yaml:"port"`
	BasePath     string        `yaml:"basePath"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	// MaxBodyBytes limits the size of a request body
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
	TLS          struct {
		Enabled  bool   `yaml:"enabled"`
		CertFile string `yaml:"certFile"`
		KeyFile  string `yaml:"keyFile"`
		// ClientCAFile, when set, is used to verify client certificates.
		// Without it client certificates are requested but not verified.
		ClientCAFile string `yaml:"clientCAFile"`
	} `yaml:"tls"`
}

// StorageConfig holds message repository settings
type StorageConfig struct {
	InboundRoot  string `yaml:"inboundRoot"`
	OutboundRoot string `yaml:"outboundRoot"`
	// AtomicWrites stages every file under a temporary name before renaming it
	AtomicWrites bool `yaml:"atomicWrites"`
	// Indent > 0 pretty prints stored message bodies
	Indent int `yaml:"indent"`
}

// ReliabilityConfig holds duplicate detection settings
type ReliabilityConfig struct {
	// DuplicateWindow of 0 disables duplicate detection
	DuplicateWindow time.Duration `yaml:"duplicateWindow"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse reads configuration from YAML data
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 100 << 20 // 100MB
	}
	if c.Storage.InboundRoot == "" {
		c.Storage.InboundRoot = "/var/peppol/inbound"
	}
	if c.Storage.OutboundRoot == "" {
		c.Storage.OutboundRoot = "/var/peppol/outbound"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.basePath must start with '/', got '%s'", c.Server.BasePath)
	}
	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls.certFile and server.tls.keyFile are required when tls is enabled")
	}
	if c.Storage.InboundRoot == c.Storage.OutboundRoot {
		return fmt.Errorf("storage.inboundRoot and storage.outboundRoot must differ")
	}
	if c.Storage.Indent < 0 {
		return fmt.Errorf("storage.indent must not be negative")
	}
	if c.Reliability.DuplicateWindow < 0 {
		return fmt.Errorf("reliability.duplicateWindow must not be negative")
	}

	if _, err := c.Logging.level(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
		// Valid formats
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json', got '%s'", c.Logging.Format)
	}

	return nil
}

func (l LoggingConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level must be 'debug', 'info', 'warn' or 'error', got '%s'", l.Level)
	}
	return level, nil
}

// NewLogger creates a logger writing to w according to the settings
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
