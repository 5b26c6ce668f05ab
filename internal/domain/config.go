package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	YouTube      YouTubeConfig      `mapstructure:"youtube"`
	FFmpeg       FFmpegConfig       `mapstructure:"ffmpeg"`
	History      HistoryConfig      `mapstructure:"history"`
	Progress     ProgressConfig     `mapstructure:"progress"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains settings for the history API server
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	OutputDir   string        `mapstructure:"output_dir"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	BufferSize  int           `mapstructure:"buffer_size"`
}

// YouTubeConfig contains settings for the metadata and search service
type YouTubeConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	ClientName    string `mapstructure:"client_name"`
	ClientVersion string `mapstructure:"client_version"`
	Language      string `mapstructure:"language"`
	Region        string `mapstructure:"region"`
	SearchLimit   int    `mapstructure:"search_limit"`
	UserAgent     string `mapstructure:"user_agent"`
}

// FFmpegConfig contains media engine settings
type FFmpegConfig struct {
	Binary      string `mapstructure:"binary"`
	ProbeBinary string `mapstructure:"probe_binary"`
}

// HistoryConfig contains job history settings
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// ProgressConfig contains terminal progress settings
type ProgressConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // job events and ffmpeg process logs
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8089,
		},
		Download: DownloadConfig{
			OutputDir:   ".",
			HTTPTimeout: 30 * time.Second,
			BufferSize:  32 * 1024,
		},
		YouTube: YouTubeConfig{
			BaseURL:       "https://www.youtube.com",
			ClientName:    "WEB",
			ClientVersion: "2.20250312.04.00",
			Language:      "en",
			Region:        "US",
			SearchLimit:   5,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
		},
		FFmpeg: FFmpegConfig{
			Binary:      "ffmpeg",
			ProbeBinary: "ffprobe",
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.config/ytdt/history.db",
		},
		Progress: ProgressConfig{
			Enabled:         true,
			RefreshInterval: 250 * time.Millisecond,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "console",
			OutputPath: "stderr",
			LogsDir:    "$HOME/.config/ytdt/logs",
		},
	}
}
