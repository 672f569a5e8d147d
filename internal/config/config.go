// Package config loads CLI settings from defaults, an optional settings
// file and EXPO_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "EXPO"

// Settings holds the resolved CLI configuration.
type Settings struct {
	APIURL            string        `mapstructure:"api-url"`
	NpmRegistryURL    string        `mapstructure:"npm-registry-url"`
	Offline           bool          `mapstructure:"offline"`
	LogLevel          string        `mapstructure:"log-level"`
	StateDir          string        `mapstructure:"state-dir"`
	UserAgent         string        `mapstructure:"user-agent"`
	HTTPTimeout       time.Duration `mapstructure:"http-timeout"`
	HTTPRetries       int           `mapstructure:"http-retries"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat-interval"`
	Debug             bool          `mapstructure:"debug"`
	CI                bool          `mapstructure:"ci"`
}

// field: default value
var defaults = map[string]any{
	"api-url":            "https://exp.host",
	"npm-registry-url":   "https://registry.npmjs.org",
	"offline":            false,
	"log-level":          "info",
	"user-agent":         "expo-cli",
	"http-timeout":       30 * time.Second,
	"http-retries":       3,
	"heartbeat-interval": 20 * time.Second,
	"debug":              false,
	"ci":                 false,
}

// Load reads settings. path may be empty, in which case only defaults and
// the environment are used; a path that does not exist is an error.
func Load(path string) (*Settings, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetDefault("state-dir", defaultStateDir())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key := range defaults {
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("state-dir", "EXPO_STATE_DIR", "__UNSAFE_EXPO_HOME_DIRECTORY")
	_ = v.BindEnv("offline", "EXPO_OFFLINE")
	_ = v.BindEnv("ci", "EXPO_CI", "CI")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s does not exist", path)
			}
			return nil, fmt.Errorf("could not stat config: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the fields that have no usable zero value.
func (s *Settings) Validate() error {
	if s.APIURL == "" {
		return fmt.Errorf("api-url required")
	}
	if s.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat-interval must be positive, got %s", s.HeartbeatInterval)
	}
	if s.HTTPRetries < 0 {
		return fmt.Errorf("http-retries must not be negative")
	}
	return nil
}

// defaultStateDir is ~/.expo, or .expo in the working directory when the
// home directory is unknown.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".expo"
	}
	return filepath.Join(home, ".expo")
}
