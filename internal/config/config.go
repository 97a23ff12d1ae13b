package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds client configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Audio   AudioConfig   `yaml:"audio"`
	History HistoryConfig `yaml:"history"`
}

type ServerConfig struct {
	// URL is the base URL of the Majordomo assistant service.
	URL string `yaml:"url"`
	// TimeoutSeconds bounds every request; a hung backend releases the
	// UI through the normal failure path instead of spinning forever.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type AudioConfig struct {
	Command     string `yaml:"command"`
	InputFormat string `yaml:"input_format"`
	InputDevice string `yaml:"input_device"`
}

type HistoryConfig struct {
	// Dir is where conversation transcripts are appended, one JSONL
	// file per project.
	Dir string `yaml:"dir"`
}

// Timeout returns the request timeout as a duration.
func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads configuration from an optional YAML file and environment
// variables. Environment variables win over the file.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			URL:            "http://localhost:5005",
			TimeoutSeconds: 60,
		},
		Audio: AudioConfig{
			Command:     "ffmpeg",
			InputFormat: "pulse",
			InputDevice: "default",
		},
		History: HistoryConfig{
			Dir: defaultHistoryDir(),
		},
	}

	if path := os.Getenv("MAJORDOMO_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if url := os.Getenv("MAJORDOMO_SERVER_URL"); url != "" {
		cfg.Server.URL = url
	}
	if timeoutStr := os.Getenv("MAJORDOMO_TIMEOUT_SECONDS"); timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MAJORDOMO_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.TimeoutSeconds = timeout
	}
	if command := os.Getenv("MAJORDOMO_AUDIO_COMMAND"); command != "" {
		cfg.Audio.Command = command
	}
	if format := os.Getenv("MAJORDOMO_AUDIO_FORMAT"); format != "" {
		cfg.Audio.InputFormat = format
	}
	if device := os.Getenv("MAJORDOMO_AUDIO_DEVICE"); device != "" {
		cfg.Audio.InputDevice = device
	}
	if dir := os.Getenv("MAJORDOMO_HISTORY_DIR"); dir != "" {
		cfg.History.Dir = dir
	}

	if cfg.Server.TimeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("server timeout must be positive, got %d", cfg.Server.TimeoutSeconds)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultHistoryDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".majordomo/history"
	}
	return filepath.Join(homeDir, ".majordomo", "history")
}
