package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/aylabs/musicore/pkg/engrave"
)

// fileConfig is the on-disk TOML configuration.
//
// Example (~/.config/musicore/config.toml):
//
//	[layout]
//	max_system_width = 1600
//	units_per_space = 20
//	stretch_to_fill = false
//
//	[layout.spacing]
//	base_spacing = 30
//	duration_factor = 50
//	minimum_spacing = 30
//
//	[server]
//	addr = ":8080"
type fileConfig struct {
	Layout engrave.LayoutConfig `toml:"layout"`
	Server serverConfig         `toml:"server"`
}

// serverConfig is the [server] section of the config file.
type serverConfig struct {
	Addr      string `toml:"addr"`
	RedisAddr string `toml:"redis_addr"`
	MongoURI  string `toml:"mongo_uri"`
}

// defaultConfigPath returns ~/.config/musicore/config.toml.
func defaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads the TOML config file. An explicit path must exist; the
// default path is optional and returns a zero config when absent.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig

	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return fileConfig{}, nil
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
