// Package config provides the configuration structure for voice-studio.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Synthesis modes.
const (
	SynthesisMock = "mock"
	SynthesisHTTP = "http"
	SynthesisNATS = "nats"
)

// Defaults applied to empty fields.
const (
	defaultAddr           = ":8080"
	defaultKVBucket       = "VOICE_STUDIO"
	defaultObjectBucket   = "VOICE_STUDIO_AUDIO"
	defaultRedisAddr      = "127.0.0.1:6379"
	defaultRedisPrefix    = "voice-studio"
	defaultSQLitePath     = "voice-studio.db"
	defaultMockDelayMS    = 2000
	defaultTimeoutSeconds = 120
	defaultSubject        = "voice.generate"
	defaultWorkerQueue    = "voice-workers"
)

var (
	// ErrUnknownBackend indicates an unsupported storage backend.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrUnknownSynthesisMode indicates an unsupported synthesis mode.
	ErrUnknownSynthesisMode = errors.New("unknown synthesis mode")
	// ErrNATSURLRequired indicates that a NATS feature is enabled without a server URL.
	ErrNATSURLRequired = errors.New("nats url is required")
	// ErrServiceURLRequired indicates that HTTP synthesis has no service URL.
	ErrServiceURLRequired = errors.New("synthesis service_url is required")
	// ErrUnknownTimezone indicates that server.timezone is not a known location.
	ErrUnknownTimezone = errors.New("unknown timezone")
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// Timezone groups the history by calendar day, e.g. "Europe/Berlin".
	// Empty means the host's local zone.
	Timezone string `toml:"timezone"`
}

// StorageConfig selects where profiles, history and audio objects live.
type StorageConfig struct {
	Backend      string `toml:"backend"`
	Objects      string `toml:"objects"`
	KVBucket     string `toml:"kv_bucket"`
	ObjectBucket string `toml:"object_bucket"`
	RedisAddr    string `toml:"redis_addr"`
	RedisPrefix  string `toml:"redis_prefix"`
	SQLitePath   string `toml:"sqlite_path"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL string `toml:"url"`
}

// SynthesisConfig selects and tunes the synthesis backend.
type SynthesisConfig struct {
	Mode           string `toml:"mode"`
	MockDelayMS    int    `toml:"mock_delay_ms"`
	MockAudioURL   string `toml:"mock_audio_url"`
	ServiceURL     string `toml:"service_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Subject        string `toml:"subject"`
	// RunWorker starts an in-process worker on Subject, backed by WorkerMode.
	RunWorker   bool   `toml:"run_worker"`
	WorkerMode  string `toml:"worker_mode"`
	WorkerQueue string `toml:"worker_queue"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	NATS      NATSConfig      `toml:"nats"`
	Synthesis SynthesisConfig `toml:"synthesis"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load loads the configuration for voice-studio, fills in defaults and
// validates the result.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills every empty field with its default.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Server.Addr, defaultAddr)
	setDefault(&c.Storage.Backend, BackendMemory)
	setDefault(&c.Storage.KVBucket, defaultKVBucket)
	setDefault(&c.Storage.ObjectBucket, defaultObjectBucket)
	setDefault(&c.Storage.RedisAddr, defaultRedisAddr)
	setDefault(&c.Storage.RedisPrefix, defaultRedisPrefix)
	setDefault(&c.Storage.SQLitePath, defaultSQLitePath)
	setDefault(&c.Synthesis.Mode, SynthesisMock)
	setDefault(&c.Synthesis.Subject, defaultSubject)
	setDefault(&c.Synthesis.WorkerMode, SynthesisMock)
	setDefault(&c.Synthesis.WorkerQueue, defaultWorkerQueue)

	if c.Storage.Objects == "" {
		c.Storage.Objects = BackendMemory
		if c.Storage.Backend == BackendNATS {
			c.Storage.Objects = BackendNATS
		}
	}

	if c.Synthesis.MockDelayMS <= 0 {
		c.Synthesis.MockDelayMS = defaultMockDelayMS
	}

	if c.Synthesis.TimeoutSeconds <= 0 {
		c.Synthesis.TimeoutSeconds = defaultTimeoutSeconds
	}
}

// Validate reports the first inconsistency in the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendNATS, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownBackend, c.Storage.Backend)
	}

	switch c.Storage.Objects {
	case BackendMemory, BackendNATS:
	default:
		return fmt.Errorf("%w for objects: '%s'", ErrUnknownBackend, c.Storage.Objects)
	}

	for _, mode := range []string{c.Synthesis.Mode, c.Synthesis.WorkerMode} {
		switch mode {
		case SynthesisMock, SynthesisHTTP, SynthesisNATS:
		default:
			return fmt.Errorf("%w: '%s'", ErrUnknownSynthesisMode, mode)
		}
	}

	if c.Synthesis.RunWorker && c.Synthesis.WorkerMode == SynthesisNATS {
		return fmt.Errorf("%w: worker_mode cannot be '%s'", ErrUnknownSynthesisMode, SynthesisNATS)
	}

	if c.NeedsNATS() && c.NATS.URL == "" {
		return ErrNATSURLRequired
	}

	if c.usesHTTPSynthesis() && c.Synthesis.ServiceURL == "" {
		return ErrServiceURLRequired
	}

	_, err := c.Location()
	if err != nil {
		return err
	}

	return nil
}

// NeedsNATS reports whether any configured component talks to NATS.
func (c *Config) NeedsNATS() bool {
	return c.Storage.Backend == BackendNATS ||
		c.Storage.Objects == BackendNATS ||
		c.Synthesis.Mode == SynthesisNATS ||
		c.Synthesis.RunWorker
}

func (c *Config) usesHTTPSynthesis() bool {
	return c.Synthesis.Mode == SynthesisHTTP ||
		(c.Synthesis.RunWorker && c.Synthesis.WorkerMode == SynthesisHTTP)
}

// Location returns the time zone used to group history by day.
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", ErrUnknownTimezone, c.Server.Timezone, err)
	}

	return loc, nil
}

// MockDelay returns the simulated synthesis latency.
func (s SynthesisConfig) MockDelay() time.Duration {
	return time.Duration(s.MockDelayMS) * time.Millisecond
}

// Timeout returns the per-request synthesis timeout.
func (s SynthesisConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
