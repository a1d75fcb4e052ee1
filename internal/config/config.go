package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

// EnvPrefix marks environment variables that override the config file,
// e.g. SIGNAGE_SERVER_URL -> server_url.
const EnvPrefix = "SIGNAGE_"

// Config is the player's persisted configuration record.
type Config struct {
	ServerURL         string        `koanf:"server_url"`
	Identifier        string        `koanf:"identifier"`
	Name              string        `koanf:"name"`
	Location          string        `koanf:"location"`
	PollInterval      time.Duration `koanf:"poll_interval"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	NoContentRetry    time.Duration `koanf:"no_content_retry"`
	CacheDir          string        `koanf:"cache_dir"`
	DownloadWorkers   int           `koanf:"download_workers"`
	MQTTBroker        string        `koanf:"mqtt_broker"`
	VideoCommand      string        `koanf:"video_command"`
	LogFile           string        `koanf:"log_file"`
	LogLevel          string        `koanf:"log_level"`
}

func Default() Config {
	return Config{
		ServerURL:         "http://localhost:5000",
		PollInterval:      30 * time.Second,
		HeartbeatInterval: 60 * time.Second,
		NoContentRetry:    30 * time.Second,
		CacheDir:          "cache",
		DownloadWorkers:   4,
		LogLevel:          "info",
	}
}

// Load layers defaults, the YAML file at path (if it exists) and SIGNAGE_
// environment variables. A missing identifier is generated and the file
// written back so the screen keeps the same identity across restarts. Only
// defaults, file values and the generated identifier are written; environment
// overrides stay out of the file, and nothing is written for an invalid
// configuration.
func Load(path string) (Config, error) {
	stored := koanf.New(".")

	defaults := Default()
	if err := stored.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	fileExists := false
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileExists = true
			if err := stored.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	k := stored.Copy()
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	generated := ""
	if cfg.Identifier == "" {
		generated = uuid.NewString()
		cfg.Identifier = generated
		log.Info().Str("identifier", generated).Msg("generated screen identifier")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	if path != "" && (generated != "" || !fileExists) {
		var persist Config
		if err := stored.Unmarshal("", &persist); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
		}
		if generated != "" {
			persist.Identifier = generated
		}
		if err := Save(path, persist); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func envTransform(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
}

// Save writes cfg to path as YAML. Durations are written in their string form
// ("30s") so the file stays hand-editable.
func Save(path string, cfg Config) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(&cfg, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	for key, d := range map[string]time.Duration{
		"poll_interval":      cfg.PollInterval,
		"heartbeat_interval": cfg.HeartbeatInterval,
		"no_content_retry":   cfg.NoContentRetry,
	} {
		if err := k.Set(key, d.String()); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	out, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server_url %q is not an absolute URL", c.ServerURL)
	}
	if c.Identifier == "" {
		return errors.New("identifier is required")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("heartbeat_interval must be positive")
	}
	if c.NoContentRetry <= 0 {
		return errors.New("no_content_retry must be positive")
	}
	if c.CacheDir == "" {
		return errors.New("cache_dir is required")
	}
	if c.DownloadWorkers < 1 {
		return errors.New("download_workers must be at least 1")
	}
	return nil
}
