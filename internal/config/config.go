// Package config loads the gateway's TOML configuration via
// configurator.Load(&cfg, log) and layers environment-variable overrides
// on top of it via ApplyEnvOverrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"

	"github.com/book-expert/unified-tts/internal/pathutil"
	"github.com/book-expert/unified-tts/internal/profiles"
)

const defaultPort = 8765

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PathsConfig controls on-disk resource locations.
type PathsConfig struct {
	VoiceDir  string `toml:"voice_dir"`
	PrefsFile string `toml:"prefs_file"`
	LogDir    string `toml:"log_dir"`
}

// BackendConfig is one adapter's connection details.
type BackendConfig struct {
	Kind   string `toml:"kind"`
	URL    string `toml:"url"`
	APIKey string `toml:"api_key,omitempty"`
}

// RoutingConfig controls default backend selection.
type RoutingConfig struct {
	DefaultBackend string `toml:"default_backend"`
}

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig    `toml:"server"`
	Paths    PathsConfig     `toml:"paths"`
	Routing  RoutingConfig   `toml:"routing"`
	Backends []BackendConfig `toml:"backend"`
}

// Load reads config.toml via configurator, then applies environment
// overrides: UNIFIED_TTS_HOST, UNIFIED_TTS_PORT, UNIFIED_TTS_VOICE_DIR,
// one <BACKEND>_URL per adapter, one <CLOUD>_API_KEY per cloud adapter.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	if err := configurator.Load(&cfg, log); err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	return &cfg, nil
}

// ApplyDefaults fills in zero-valued fields with the gateway's defaults.
// Exported so tests can exercise it without a config.toml on disk.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}

	if cfg.Routing.DefaultBackend == "" {
		cfg.Routing.DefaultBackend = profiles.OpenAudio
	}

	if len(cfg.Backends) == 0 {
		cfg.Backends = defaultBackends()
	}

	if cfg.Paths.VoiceDir == "" {
		cfg.Paths.VoiceDir = pathutil.DefaultVoiceDir()
	}

	if cfg.Paths.PrefsFile == "" {
		cfg.Paths.PrefsFile = pathutil.DefaultPrefsFile()
	}

	if cfg.Paths.LogDir == "" {
		cfg.Paths.LogDir = os.TempDir()
	}
}

func defaultBackends() []BackendConfig {
	kinds := []string{
		profiles.OpenAudio, profiles.VoxCPM, profiles.VoxCPM15,
		profiles.Kyutai, profiles.Higgs, profiles.ElevenLabs,
		profiles.VibeVoice, profiles.Kokoro, profiles.Qwen3TTS,
	}

	out := make([]BackendConfig, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, BackendConfig{Kind: k})
	}

	return out
}

// ApplyEnvOverrides layers environment variables on top of cfg. Exported
// so tests can exercise it without a config.toml on disk.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UNIFIED_TTS_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("UNIFIED_TTS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("UNIFIED_TTS_VOICE_DIR"); v != "" {
		cfg.Paths.VoiceDir = v
	}

	for i := range cfg.Backends {
		b := &cfg.Backends[i]

		envKey := strings.ToUpper(b.Kind) + "_URL"
		if v := os.Getenv(envKey); v != "" {
			b.URL = v
		}

		apiKeyEnv := strings.ToUpper(b.Kind) + "_API_KEY"
		if v := os.Getenv(apiKeyEnv); v != "" {
			b.APIKey = v
		}
	}
}
