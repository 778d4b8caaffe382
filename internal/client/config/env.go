package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/yudo-scheduler/yudo/internal/timex"
)

// Environment variables read by parseEnv.
const (
	EnvAPIURL         = "YUDO_API_URL"
	EnvPollInterval   = "YUDO_POLL_INTERVAL"
	EnvRequestTimeout = "YUDO_REQUEST_TIMEOUT"
	EnvDatabasePath   = "YUDO_DB_PATH"
	EnvLinkListenAddr = "YUDO_LINK_ADDR"
	EnvDebug          = "YUDO_DEBUG"
)

// Environment looks up a variable, like os.LookupEnv.
type Environment func(key string) (string, bool)

// MapEnvironment serves variables from m.
func MapEnvironment(m map[string]string) Environment {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// OSEnvironment reads the process environment, falling back to the given
// .env files (".env" when none are named). Missing files are skipped; the
// process environment always wins.
func OSEnvironment(dotenv ...string) (Environment, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}

	file := map[string]string{}
	for _, p := range dotenv {
		vals, err := godotenv.Read(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		for k, v := range vals {
			if _, seen := file[k]; !seen {
				file[k] = v
			}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

// parseEnv overlays cfg with YUDO_* variables. Intervals accept a duration
// string ("30s") or a plain number of seconds.
func parseEnv(cfg *Config, env Environment) error {
	if env == nil {
		return nil
	}

	if v, ok := env(EnvAPIURL); ok {
		cfg.APIURL = v
	}
	if v, ok := env(EnvPollInterval); ok {
		d, err := timex.Parse(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		cfg.PollInterval = d
	}
	if v, ok := env(EnvRequestTimeout); ok {
		d, err := timex.Parse(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := env(EnvDatabasePath); ok {
		cfg.DatabasePath = v
	}
	if v, ok := env(EnvLinkListenAddr); ok {
		cfg.LinkListenAddr = v
	}
	if v, ok := env(EnvDebug); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		cfg.Debug = b
	}
	return nil
}
