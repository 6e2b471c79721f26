package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings sluice and sluiced share.
type Config struct {
	APIBind      string
	LogRoot      string
	LogPattern   string
	RulesPath    string
	PollInterval time.Duration
	Reconnect    bool
}

const (
	defaultConfigPath   = "~/.config/sluice/config.toml"
	defaultAPIBind      = "127.0.0.1:7519"
	defaultLogRoot      = "~/slurm_logs"
	defaultLogPattern   = "{name}/{id}/{stream}.log"
	defaultPollInterval = 5 * time.Second
)

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIBind:      defaultAPIBind,
		LogRoot:      mustExpand(defaultLogRoot),
		LogPattern:   defaultLogPattern,
		PollInterval: defaultPollInterval,
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind     string `toml:"api_bind"`
		LogRoot     string `toml:"log_root"`
		LogPattern  string `toml:"log_pattern"`
		RulesPath   string `toml:"rules_path"`
		PollSeconds int    `toml:"poll_seconds"`
		Reconnect   bool   `toml:"reconnect"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	if v := strings.TrimSpace(raw.LogRoot); v != "" {
		cfg.LogRoot = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogPattern); v != "" {
		cfg.LogPattern = v
	}
	if v := strings.TrimSpace(raw.RulesPath); v != "" {
		cfg.RulesPath = mustExpand(v)
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	cfg.Reconnect = raw.Reconnect

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
