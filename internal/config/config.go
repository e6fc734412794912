// ABOUTME: Decoder CLI configuration
// ABOUTME: YAML payload type map, output format, playout policy, logging and metrics
package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio/decode"
)

// Concealment policies
const (
	PLCCodec   = "codec"
	PLCSilence = "silence"
)

// Config is the complete CLI configuration
type Config struct {
	// PayloadTypes maps RTP payload type numbers to decoder type names
	PayloadTypes map[uint8]string `yaml:"payload_types"`
	Output       OutputConfig     `yaml:"output"`
	Playout      PlayoutConfig    `yaml:"playout"`
	Logging      LoggingConfig    `yaml:"logging"`
	Metrics      MetricsConfig    `yaml:"metrics"`
}

// OutputConfig describes the PCM written by the CLI
type OutputConfig struct {
	// SampleRate of 0 keeps each codec's native rate
	SampleRate int `yaml:"sample_rate"`
}

// PlayoutConfig controls loss handling
type PlayoutConfig struct {
	// PLC is "codec" to use decoder concealment where available, or
	// "silence" to always insert silence
	PLC string `yaml:"plc"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig contains the Prometheus endpoint
type MetricsConfig struct {
	// Address to serve /metrics on; empty disables the endpoint
	Address string `yaml:"address"`
}

// defaultPayloadTypes follows RFC 3551 for static types; 111 is the usual
// dynamic Opus mapping.
var defaultPayloadTypes = map[uint8]decode.Type{
	0:   decode.TypePCMU,
	8:   decode.TypePCMA,
	9:   decode.TypeG722,
	13:  decode.TypeCNGNB,
	111: decode.TypeOpus2ch,
}

// Default returns the configuration used when no file is given. Only payload
// types whose engine is linked into the binary are mapped.
func Default() *Config {
	pts := make(map[uint8]string, len(defaultPayloadTypes))
	for pt, t := range defaultPayloadTypes {
		if decode.Supported(t) {
			pts[pt] = t.String()
		}
	}
	return &Config{
		PayloadTypes: pts,
		Playout:      PlayoutConfig{PLC: PLCCodec},
		Logging:      LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a file over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if _, err := c.Decoders(); err != nil {
		return fmt.Errorf("payload_types: %w", err)
	}

	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := c.Playout.Validate(); err != nil {
		return fmt.Errorf("playout config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Decoders resolves the payload type map to decoder types
func (c *Config) Decoders() (map[uint8]decode.Type, error) {
	if len(c.PayloadTypes) == 0 {
		return nil, fmt.Errorf("at least one payload type is required")
	}
	types := make(map[uint8]decode.Type, len(c.PayloadTypes))
	for pt, name := range c.PayloadTypes {
		if pt > 127 {
			return nil, fmt.Errorf("payload type %d out of range", pt)
		}
		t, err := decode.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("payload type %d: %w", pt, err)
		}
		if !t.HasDecoder() {
			return nil, fmt.Errorf("payload type %d: %s has no decoder", pt, t)
		}
		if !decode.Supported(t) {
			return nil, fmt.Errorf("payload type %d: no %s engine in this build", pt, t)
		}
		types[pt] = t
	}
	return types, nil
}

// Validate validates the output format
func (o *OutputConfig) Validate() error {
	switch o.SampleRate {
	case 0, 8000, 16000, 32000, 48000:
		return nil
	}
	return fmt.Errorf("sample_rate must be 0, 8000, 16000, 32000 or 48000, got %d", o.SampleRate)
}

// Validate validates the concealment policy
func (p *PlayoutConfig) Validate() error {
	if p.PLC != PLCCodec && p.PLC != PLCSilence {
		return fmt.Errorf("plc must be %q or %q, got %q", PLCCodec, PLCSilence, p.PLC)
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if l.Format != "text" && l.Format != "json" {
		return fmt.Errorf("format must be text or json, got %q", l.Format)
	}
	return nil
}

// Apply configures log from the logging section
func (l *LoggingConfig) Apply(log *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	if l.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
