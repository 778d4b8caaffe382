package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	yudocli "github.com/yudo-scheduler/yudo/internal/client/cli"
	"github.com/yudo-scheduler/yudo/internal/client/config"
	"github.com/yudo-scheduler/yudo/internal/logging"
)

var (
	gitCommit string
	gitTag    string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "JSON or TOML config file",
	}
	apiFlag = &cli.StringFlag{
		Name:    "api",
		Aliases: []string{"a"},
		Usage:   "Yudo API origin",
	}
	intervalFlag = &cli.IntFlag{
		Name:    "interval",
		Aliases: []string{"i"},
		Usage:   "notification poll interval in seconds",
	}
	dbFlag = &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "local database file",
	}
	listenFlag = &cli.StringFlag{
		Name:    "listen",
		Aliases: []string{"l"},
		Usage:   "loopback address for e-mailed links, empty to disable",
	}
	dotenvFlag = &cli.StringFlag{
		Name:  "env-file",
		Usage: ".env file with YUDO_* settings",
		Value: ".env",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
	typeFlag = &cli.StringFlag{
		Name:  "type",
		Usage: "notification type: all, auth, telegram, yudo or form",
		Value: "all",
	}
)

func newCLI() *cli.App {
	app := cli.NewApp()
	app.Name = "yudo"
	app.Usage = "Yudo Scheduler terminal client"
	app.Version = version()
	app.Flags = []cli.Flag{
		configFileFlag,
		apiFlag,
		intervalFlag,
		dbFlag,
		listenFlag,
		dotenvFlag,
		debugFlag,
	}
	app.Action = func(c *cli.Context) error {
		return withApp(c, func(ctx context.Context, a *yudocli.App) error {
			return a.Run(ctx)
		})
	}
	app.Commands = []*cli.Command{
		{
			Name:      "link",
			Usage:     "Open a quick login or password reset link",
			ArgsUsage: "<url>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.Exit("usage: yudo link <url>", 2)
				}
				return withApp(c, func(ctx context.Context, a *yudocli.App) error {
					return a.OpenLink(ctx, c.Args().First())
				})
			},
		},
		{
			Name:  "whoami",
			Usage: "Show the logged in user",
			Action: func(c *cli.Context) error {
				return withApp(c, func(ctx context.Context, a *yudocli.App) error {
					return a.Whoami(ctx, nil)
				})
			},
		},
		{
			Name:  "logout",
			Usage: "Forget the stored session",
			Action: func(c *cli.Context) error {
				return withApp(c, func(ctx context.Context, a *yudocli.App) error {
					return a.Logout(ctx, nil)
				})
			},
		},
		{
			Name:    "notifications",
			Aliases: []string{"n"},
			Usage:   "Print the latest notifications",
			Flags:   []cli.Flag{typeFlag},
			Action: func(c *cli.Context) error {
				return withApp(c, func(ctx context.Context, a *yudocli.App) error {
					return a.PrintFeed(ctx, c.String(typeFlag.Name))
				})
			},
		},
	}
	return app
}

// configArgs turns the global flags that were set into the short-flag form
// config.LoadConfig understands.
func configArgs(c *cli.Context) []string {
	var args []string
	if c.IsSet(configFileFlag.Name) {
		args = append(args, "-c", c.String(configFileFlag.Name))
	}
	if c.IsSet(apiFlag.Name) {
		args = append(args, "-a", c.String(apiFlag.Name))
	}
	if c.IsSet(intervalFlag.Name) {
		args = append(args, "-i", strconv.Itoa(c.Int(intervalFlag.Name)))
	}
	if c.IsSet(dbFlag.Name) {
		args = append(args, "-d", c.String(dbFlag.Name))
	}
	if c.IsSet(listenFlag.Name) {
		args = append(args, "-l="+c.String(listenFlag.Name))
	}
	return args
}

func withApp(c *cli.Context, fn func(context.Context, *yudocli.App) error) error {
	env, err := config.OSEnvironment(c.String(dotenvFlag.Name))
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(configArgs(c), env)
	if err != nil {
		return err
	}
	if c.Bool(debugFlag.Name) {
		cfg.Debug = true
	}
	logger := logging.New(os.Stderr, cfg.Debug)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := yudocli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

func version() string {
	v := gitTag
	if v == "" {
		v = "dev"
	}
	if gitCommit != "" {
		v += " (" + gitCommit + ")"
	}
	return v
}

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
