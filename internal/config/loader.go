package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Source names where a configuration came from.
type Source string

const (
	SourceCustom   Source = "custom"
	SourceUser     Source = "user"
	SourceLocal    Source = "local"
	SourceEmbedded Source = "embedded"
	SourceBuiltin  Source = "builtin"
)

const (
	configFile = "pong.yaml"
	localDir   = "configs"
)

// Load loads the game configuration.
// Search order: customPath -> ~/.duopong/pong.yaml -> ./configs/pong.yaml -> embedded default.
// Files are applied on top of the built-in defaults, so a file may set only
// the values it changes.
func Load(customPath string) (GameConfig, Source, error) {
	return load(customPath, userConfigPath(configFile), filepath.Join(localDir, configFile))
}

func load(customPath, userPath, localPath string) (GameConfig, Source, error) {
	// A custom path must work; other locations are optional
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return GameConfig{}, "", fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		cfg, err := parse(data)
		if err != nil {
			return GameConfig{}, "", fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, SourceCustom, nil
	}

	if userPath != "" {
		if data, err := os.ReadFile(userPath); err == nil {
			if cfg, err := parse(data); err == nil {
				return cfg, SourceUser, nil
			}
		}
	}

	if data, err := os.ReadFile(localPath); err == nil {
		if cfg, err := parse(data); err == nil {
			return cfg, SourceLocal, nil
		}
	}

	if cfg, err := parse(defaultPongYAML); err == nil {
		return cfg, SourceEmbedded, nil
	}
	return DefaultGameConfig(), SourceBuiltin, nil
}

func parse(data []byte) (GameConfig, error) {
	cfg := DefaultGameConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GameConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return GameConfig{}, err
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".duopong", filename)
}
