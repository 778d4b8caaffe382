package config

import (
	"flag"
	"io"
	"time"

	"github.com/yudo-scheduler/yudo/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   API origin (default from Config)
//	-i int      poll interval in seconds (default from Config)
//	-d string   database path (default from Config)
//	-l string   link listener address, "" to disable (default from Config)
//
// The args are filtered with flagx.FilterArgs first, so flags owned by other
// parsers do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-d", "-l"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "API origin")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "poll interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "database path")
	fs.StringVar(&cfg.LinkListenAddr, "l", cfg.LinkListenAddr, "link listener address")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.PollInterval = time.Duration(*pollInterval) * time.Second
		}
	})
	return nil
}
