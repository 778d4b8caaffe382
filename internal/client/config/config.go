package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/yudo-scheduler/yudo/internal/filex"
)

// Config holds runtime settings for the Yudo client.
//
// Fields:
//   - APIURL: origin of the Yudo REST API.
//   - PollInterval: how often notifications are fetched and the API is
//     probed for the online status line.
//   - RequestTimeout: upper bound for a single API request.
//   - DatabasePath: SQLite file holding local storage.
//   - LinkListenAddr: loopback address of the link listener; empty disables it.
//   - Debug: enables debug logging.
type Config struct {
	APIURL         string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	DatabasePath   string
	LinkListenAddr string
	Debug          bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "https://api.yudo.app"
	c.PollInterval = 60 * time.Second
	c.RequestTimeout = 15 * time.Second
	c.DatabasePath = filepath.Join(filex.DefaultDataDir(), "yudo.db")
	c.LinkListenAddr = "127.0.0.1:8787"
	c.Debug = false
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL %q", c.APIURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is empty")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if given), the environment and command-line flags. Later
// sources take precedence over earlier ones. args excludes the program name.
func LoadConfig(args []string, env Environment) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, env); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
