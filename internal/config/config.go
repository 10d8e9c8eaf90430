// Package config loads and saves btsdp's on-disk configuration: the
// default discovery timeout, log level, discovery-cache path, and a
// list of named remote-device profiles. Grounded on the teacher's
// newtmgr/config/connprofile.go (home-directory + structured-file
// pattern), but using github.com/BurntSushi/toml instead of the
// teacher's hand-rolled JSON, an enrichment borrowed from the
// danmuck-edgectl pack repo's own internal/config package.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
)

// DirName is the per-user directory holding the config file and the
// discovery cache.
const DirName = ".btsdp"

// FileName is the config file within DirName.
const FileName = "config.toml"

// Profile names a remote device a caller can discover against without
// retyping its address on every invocation. The core never interprets
// Address; it is handed straight to the caller-supplied Conn.
type Profile struct {
	Name    string `toml:"name"`
	Address string `toml:"address"`
}

// Config is btsdp's persisted settings.
type Config struct {
	DefaultTimeoutSeconds int       `toml:"default_timeout_seconds"`
	LogLevel              string    `toml:"log_level"`
	CachePath             string    `toml:"cache_path"`
	Profiles              []Profile `toml:"profiles"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		DefaultTimeoutSeconds: 10,
		LogLevel:              "info",
		CachePath:             "",
	}
}

func dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

func filename() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, FileName), nil
}

// Load reads the config file, falling back to Default if it doesn't
// exist yet. In both cases an empty CachePath is set to
// discovery-cache.cbor inside the config directory.
func Load() (*Config, error) {
	path, err := filename()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	log.Debugf("config: reading %s", path)

	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	if cfg.CachePath == "" {
		d, err := dir()
		if err != nil {
			return nil, err
		}
		cfg.CachePath = filepath.Join(d, "discovery-cache.cbor")
	}

	return cfg, nil
}

// Save writes cfg to the config file, creating its directory if
// needed.
func (c *Config) Save() error {
	d, err := dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return fmt.Errorf("config: creating %s: %w", d, err)
	}

	path, err := filename()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("config: encoding %s: %w", path, err)
	}
	return nil
}

// Profile looks up a named profile.
func (c *Config) Profile(name string) (Profile, bool) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// AddProfile appends or replaces a profile by name.
func (c *Config) AddProfile(p Profile) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == p.Name {
			c.Profiles[i] = p
			return
		}
	}
	c.Profiles = append(c.Profiles, p)
}
