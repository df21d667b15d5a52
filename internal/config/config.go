package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Config carries everything the service needs. Nothing here is ambient:
// job environments are built from these values explicitly at dispatch time.
type Config struct {
	Listen    string `toml:"listen"`
	DBPath    string `toml:"db_path"`
	RedisAddr string `toml:"redis_addr"`

	CargoBin string `toml:"cargo_bin"`
	WorkDir  string `toml:"work_dir"`

	// RegistryToken is never read from the config file, only from the
	// environment, so it cannot end up committed by accident.
	RegistryToken string `toml:"-"`
}

func Default() Config {
	return Config{
		Listen:    ":3000",
		DBPath:    "./runs.db",
		RedisAddr: "localhost:6379",
		CargoBin:  "cargo",
		WorkDir:   ".",
	}
}

// Load reads a TOML config file on top of the defaults. A missing file is
// fine when no path was given explicitly. The registry token always comes
// from CARGO_REGISTRY_TOKEN.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("config file %q does not exist", path)
			}
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.RegistryToken = os.Getenv("CARGO_REGISTRY_TOKEN")

	if err := cfg.OK(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) OK() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.CargoBin == "" {
		return fmt.Errorf("cargo binary is required")
	}
	return nil
}
