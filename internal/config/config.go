package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds configurable parameters.
type Config struct {
	APIKey      string
	APIEndpoint string
	Model       string

	SampleRate int
	Channels   int

	ArtifactPath string
	TogglePath   string
	PollInterval time.Duration

	ToggleKey string
	CancelKey string

	MaxDuration    time.Duration
	RequestTimeout time.Duration
	MaxRetry       int
	RetryBaseDelay time.Duration
	EnableHTTP2    bool

	Notification bool
	Paste        bool

	LogDir    string
	LogFormat string
	LogLevel  string
}

// ErrMissingAPIKey is the only fatal configuration error: without
// credentials the service cannot transcribe anything.
var ErrMissingAPIKey = errors.New("no API key configured: set GROQ_API_KEY or api_key in config.yaml")

// Load reads defaults, ~/.config/glaido/config.yaml, and environment
// overrides, in increasing order of precedence. A missing config file is
// fine; a malformed one is not.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "glaido"))
	}

	setDefaults(v)

	v.SetEnvPrefix("GLAIDO")
	v.AutomaticEnv()
	// The key has always been read from GROQ_API_KEY; keep honoring it.
	_ = v.BindEnv("api_key", "GLAIDO_API_KEY", "GROQ_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_endpoint", "https://api.groq.com/openai/v1/audio/transcriptions")
	v.SetDefault("model", "whisper-large-v3")
	v.SetDefault("sample_rate", 16000)
	v.SetDefault("channels", 1)
	v.SetDefault("artifact_path", filepath.Join(os.TempDir(), "glaido_recording.wav"))
	v.SetDefault("toggle_path", "/tmp/glaido_toggle_signal")
	v.SetDefault("poll_interval", "100ms")
	v.SetDefault("toggle_key", "space")
	v.SetDefault("cancel_key", "Escape")
	v.SetDefault("max_duration", "90s")
	v.SetDefault("request_timeout", "90s")
	v.SetDefault("max_retry", 3)
	v.SetDefault("retry_base_delay", "500ms")
	v.SetDefault("enable_http2", true)
	v.SetDefault("notification", true)
	v.SetDefault("paste", false)
	v.SetDefault("log_dir", "")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_level", "info")
}

func fromViper(v *viper.Viper) Config {
	// Zero or negative capture parameters would poison every duration and
	// encoder computation downstream; fall back to the defaults instead.
	sampleRate := v.GetInt("sample_rate")
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := v.GetInt("channels")
	if channels <= 0 {
		channels = 1
	}
	return Config{
		APIKey:         v.GetString("api_key"),
		APIEndpoint:    v.GetString("api_endpoint"),
		Model:          v.GetString("model"),
		SampleRate:     sampleRate,
		Channels:       channels,
		ArtifactPath:   v.GetString("artifact_path"),
		TogglePath:     v.GetString("toggle_path"),
		PollInterval:   v.GetDuration("poll_interval"),
		ToggleKey:      v.GetString("toggle_key"),
		CancelKey:      v.GetString("cancel_key"),
		MaxDuration:    v.GetDuration("max_duration"),
		RequestTimeout: v.GetDuration("request_timeout"),
		MaxRetry:       v.GetInt("max_retry"),
		RetryBaseDelay: v.GetDuration("retry_base_delay"),
		EnableHTTP2:    v.GetBool("enable_http2"),
		Notification:   v.GetBool("notification"),
		Paste:          v.GetBool("paste"),
		LogDir:         v.GetString("log_dir"),
		LogFormat:      v.GetString("log_format"),
		LogLevel:       v.GetString("log_level"),
	}
}

// Validate reports startup-fatal misconfiguration. Everything else has a
// usable default.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
