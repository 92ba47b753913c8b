package types

// Config represents the overall application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Library   LibraryConfig   `yaml:"library" json:"library"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Session   SessionConfig   `yaml:"session" json:"session"`
	Playback  PlaybackConfig  `yaml:"playback" json:"playback"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	ReadTimeout  int    `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" json:"write_timeout"` // seconds
}

// StorageConfig defines storage adapter settings
type StorageConfig struct {
	Adapter string           `yaml:"adapter" json:"adapter"` // "local" or "s3"
	Local   LocalStorageOpts `yaml:"local" json:"local"`
	S3      S3StorageOpts    `yaml:"s3" json:"s3"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl" json:"use_ssl"`
}

// LibraryConfig locates the text library within storage
type LibraryConfig struct {
	Prefix string `yaml:"prefix" json:"prefix"` // path prefix, e.g. "texts"
}

// ProvidersConfig holds all provider configurations
type ProvidersConfig struct {
	LLM         []LLMProviderConfig `yaml:"llm" json:"llm"`
	TTS         []TTSProviderConfig `yaml:"tts" json:"tts"`
	LocalSpeech LocalSpeechConfig   `yaml:"local_speech" json:"local_speech"`
	// Preferred is the preference order for LLM providers when none is
	// selected explicitly
	Preferred []string `yaml:"preferred" json:"preferred"`
}

// LLMProviderConfig configures a translation/chat/dictionary provider
type LLMProviderConfig struct {
	Name     string            `yaml:"name" json:"name"`
	Enabled  bool              `yaml:"enabled" json:"enabled"`
	Endpoint string            `yaml:"endpoint" json:"endpoint"`
	APIKey   string            `yaml:"api_key" json:"api_key"`
	Model    string            `yaml:"model" json:"model"`
	Options  map[string]string `yaml:"options" json:"options"`
}

// TTSProviderConfig configures the primary audio-synthesis backend
type TTSProviderConfig struct {
	Name     string            `yaml:"name" json:"name"`
	Enabled  bool              `yaml:"enabled" json:"enabled"`
	Endpoint string            `yaml:"endpoint" json:"endpoint"`
	APIKey   string            `yaml:"api_key" json:"api_key"`
	Model    string            `yaml:"model" json:"model"`
	Options  map[string]string `yaml:"options" json:"options"`
}

// LocalSpeechConfig configures the on-device speech engine used as the
// fallback playback backend
type LocalSpeechConfig struct {
	Command string   `yaml:"command" json:"command"` // e.g. "espeak-ng"
	Args    []string `yaml:"args" json:"args"`
	Voices  []Voice  `yaml:"voices" json:"voices"`
}

// SessionConfig tunes session-level behavior
type SessionConfig struct {
	LookupDebounceMs   int `yaml:"lookup_debounce_ms" json:"lookup_debounce_ms"`
	DismissGraceMs     int `yaml:"dismiss_grace_ms" json:"dismiss_grace_ms"`
	ContextPrefixChars int `yaml:"context_prefix_chars" json:"context_prefix_chars"`
}

// PlaybackConfig tunes the playback controller
type PlaybackConfig struct {
	AudioCachePrefix string  `yaml:"audio_cache_prefix" json:"audio_cache_prefix"` // empty disables caching
	DefaultVoice     string  `yaml:"default_voice" json:"default_voice"`
	DefaultSpeed     float64 `yaml:"default_speed" json:"default_speed"`
}
