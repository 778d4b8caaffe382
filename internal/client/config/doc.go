// Package config loads runtime configuration for the Yudo client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .toml are parsed with github.com/naoina/toml, anything else as JSON.
//  3. YUDO_* environment variables, with a .env file as fallback
//     (github.com/joho/godotenv).
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   API origin
//	-i int      poll interval (seconds)
//	-d string   database path
//	-l string   link listener address ("" disables the listener)
//
// # File schema
//
// Intervals use timex.Duration, so they can be strings like "30s" or a bare
// number of seconds:
//
//	{
//	  "api_url": "https://api.yudo.app",
//	  "poll_interval": "60s",
//	  "request_timeout": "15s",
//	  "database_path": "/home/ana/.config/yudo/yudo.db",
//	  "link_listen_addr": "127.0.0.1:8787",
//	  "debug": false
//	}
//
// The TOML form uses the same keys.
package config
