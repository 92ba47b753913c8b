package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
	"gopkg.in/yaml.v3"
)

// Load reads and parses the configuration file
// It also supports environment variable overrides with BR_ prefix
func Load(configPath string) (*types.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid and fills in defaults
// for unset tunables
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Storage.Adapter != "local" && cfg.Storage.Adapter != "s3" {
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	if cfg.Storage.Adapter == "local" {
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	}

	if cfg.Storage.Adapter == "s3" {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	}

	if cfg.Library.Prefix == "" {
		cfg.Library.Prefix = "texts"
	}

	if cfg.Session.LookupDebounceMs <= 0 {
		cfg.Session.LookupDebounceMs = 500
	}
	if cfg.Session.DismissGraceMs <= 0 {
		cfg.Session.DismissGraceMs = 2000
	}
	if cfg.Session.ContextPrefixChars <= 0 {
		cfg.Session.ContextPrefixChars = 200
	}

	if cfg.Playback.DefaultVoice == "" {
		cfg.Playback.DefaultVoice = "alloy"
	}
	if cfg.Playback.DefaultSpeed == 0 {
		cfg.Playback.DefaultSpeed = 1.0
	}
	if cfg.Playback.DefaultSpeed < 0.25 || cfg.Playback.DefaultSpeed > 4.0 {
		return fmt.Errorf("playback default_speed must be within [0.25, 4.0]: %g", cfg.Playback.DefaultSpeed)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides
// Environment variables are prefixed with BR_ (BilingualReader)
func applyEnvOverrides(cfg *types.Config) {
	if val := os.Getenv("BR_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("BR_SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.Server.Port)
	}

	if val := os.Getenv("BR_STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv("BR_STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv("BR_STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv("BR_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("BR_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("BR_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("BR_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}

	if val := os.Getenv("BR_LIBRARY_PREFIX"); val != "" {
		cfg.Library.Prefix = val
	}

	applyProviderEnvOverrides(cfg)
}

// applyProviderEnvOverrides applies provider-specific env vars so API
// keys can stay out of the config file
func applyProviderEnvOverrides(cfg *types.Config) {
	for i := range cfg.Providers.LLM {
		prefix := fmt.Sprintf("BR_LLM_%s_", strings.ToUpper(cfg.Providers.LLM[i].Name))
		if val := os.Getenv(prefix + "API_KEY"); val != "" {
			cfg.Providers.LLM[i].APIKey = val
		}
		if val := os.Getenv(prefix + "ENDPOINT"); val != "" {
			cfg.Providers.LLM[i].Endpoint = val
		}
	}

	for i := range cfg.Providers.TTS {
		prefix := fmt.Sprintf("BR_TTS_%s_", strings.ToUpper(cfg.Providers.TTS[i].Name))
		if val := os.Getenv(prefix + "API_KEY"); val != "" {
			cfg.Providers.TTS[i].APIKey = val
		}
		if val := os.Getenv(prefix + "ENDPOINT"); val != "" {
			cfg.Providers.TTS[i].Endpoint = val
		}
	}
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15,
			WriteTimeout: 15,
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/bilingual-reader/storage",
			},
		},
		Library: types.LibraryConfig{
			Prefix: "texts",
		},
		Session: types.SessionConfig{
			LookupDebounceMs:   500,
			DismissGraceMs:     2000,
			ContextPrefixChars: 200,
		},
		Playback: types.PlaybackConfig{
			AudioCachePrefix: "audio-cache",
			DefaultVoice:     "alloy",
			DefaultSpeed:     1.0,
		},
	}
}
