package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/naoina/toml"
	"github.com/yudo-scheduler/yudo/internal/flagx"
	"github.com/yudo-scheduler/yudo/internal/timex"
)

// FileConfig is a DTO used exclusively for file unmarshalling. It relies on
// timex.Duration so intervals can be written as strings like "30s" or as a
// bare number of seconds, as in the environment. Pointer fields tell "absent"
// from "zero".
type FileConfig struct {
	APIURL         *string         `json:"api_url"`
	PollInterval   *timex.Duration `json:"poll_interval"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	DatabasePath   *string         `json:"database_path"`
	LinkListenAddr *string         `json:"link_listen_addr"`
	Debug          *bool           `json:"debug"`
}

// parseFile overlays cfg with values from the file named by -c / -config.
// Files ending in .toml are read as TOML, everything else as JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if data, err = tomlToJSON(data); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

// tomlToJSON re-encodes a TOML document as JSON so both formats share the
// JSON decoding of FileConfig, including timex.Duration.
func tomlToJSON(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc.APIURL != nil {
		cfg.APIURL = *fc.APIURL
	}
	if fc.PollInterval != nil {
		cfg.PollInterval = time.Duration(fc.PollInterval.Duration)
	}
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(fc.RequestTimeout.Duration)
	}
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.LinkListenAddr != nil {
		cfg.LinkListenAddr = *fc.LinkListenAddr
	}
	if fc.Debug != nil {
		cfg.Debug = *fc.Debug
	}
}
