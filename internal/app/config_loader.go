package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/yourusername/ytdt/internal/domain"
)

// EnvPrefix is the prefix of environment overrides, e.g. YTDT_FFMPEG_BINARY
const EnvPrefix = "YTDT"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/ytdt")
		v.AddConfigPath("/etc/ytdt")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so environment variables can override
// settings that no config file mentions
func setDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)
	v.SetDefault("download.output_dir", config.Download.OutputDir)
	v.SetDefault("download.http_timeout", config.Download.HTTPTimeout)
	v.SetDefault("download.buffer_size", config.Download.BufferSize)
	v.SetDefault("youtube.base_url", config.YouTube.BaseURL)
	v.SetDefault("youtube.client_name", config.YouTube.ClientName)
	v.SetDefault("youtube.client_version", config.YouTube.ClientVersion)
	v.SetDefault("youtube.language", config.YouTube.Language)
	v.SetDefault("youtube.region", config.YouTube.Region)
	v.SetDefault("youtube.search_limit", config.YouTube.SearchLimit)
	v.SetDefault("youtube.user_agent", config.YouTube.UserAgent)
	v.SetDefault("ffmpeg.binary", config.FFmpeg.Binary)
	v.SetDefault("ffmpeg.probe_binary", config.FFmpeg.ProbeBinary)
	v.SetDefault("history.enabled", config.History.Enabled)
	v.SetDefault("history.database_path", config.History.DatabasePath)
	v.SetDefault("progress.enabled", config.Progress.Enabled)
	v.SetDefault("progress.refresh_interval", config.Progress.RefreshInterval)
	v.SetDefault("notification.enabled", config.Notification.Enabled)
	v.SetDefault("notification.sound", config.Notification.Sound)
	v.SetDefault("notification.method", config.Notification.Method)
	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
	v.SetDefault("logging.logs_dir", config.Logging.LogsDir)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.OutputDir = expandPath(config.Download.OutputDir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	// $HOME may be unset in service environments
	if strings.Contains(path, "$HOME") && os.Getenv("HOME") == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}
	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.OutputDir == "" {
		return fmt.Errorf("download output directory not configured")
	}

	if config.Download.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}

	if config.YouTube.BaseURL == "" {
		return fmt.Errorf("youtube base url not configured")
	}

	if config.YouTube.SearchLimit < 1 {
		return fmt.Errorf("search limit must be at least 1")
	}

	if config.FFmpeg.Binary == "" {
		return fmt.Errorf("ffmpeg binary not configured")
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "warn"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	sections := map[string]interface{}{
		"server":       config.Server,
		"download":     config.Download,
		"youtube":      config.YouTube,
		"ffmpeg":       config.FFmpeg,
		"history":      config.History,
		"progress":     config.Progress,
		"notification": config.Notification,
		"logging":      config.Logging,
	}
	for name, section := range sections {
		values, err := sectionValues(section)
		if err != nil {
			return fmt.Errorf("failed to encode %s section: %w", name, err)
		}
		v.Set(name, values)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// sectionValues flattens a config section into its mapstructure keys, with
// durations written the way LoadConfig parses them
func sectionValues(section interface{}) (map[string]interface{}, error) {
	values := map[string]interface{}{}
	if err := mapstructure.Decode(section, &values); err != nil {
		return nil, err
	}
	for key, value := range values {
		if d, ok := value.(time.Duration); ok {
			values[key] = d.String()
		}
	}
	return values, nil
}
