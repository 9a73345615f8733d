package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/charmed-kubernetes/layer-docker/internal/conf"
	"github.com/charmed-kubernetes/layer-docker/internal/l10n"
	"github.com/charmed-kubernetes/layer-docker/internal/paths"
)

// Version is set via ldflags at build time.
var Version = "(local)"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "docker-config",
		Version: Version,
		Usage:   l10n.T("maintain the docker daemon configuration"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: conf.DefaultPath,
				Usage: l10n.T("read operator configuration from `FILE`"),
			},
			&cli.StringFlag{
				Name:  "config-dir",
				Value: conf.DefaultDropInDir,
				Usage: l10n.T("read drop-in configuration files from `DIR`"),
			},
			&cli.StringFlag{
				Name:  "state",
				Usage: l10n.T("keep the overlay database in `FILE`"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: l10n.T("log debug messages"),
			},
		},
		Before: beforeAction,
		Commands: []*cli.Command{
			renderCommand(),
			setCommand(),
			deleteCommand(),
			showCommand(),
			optsCommand(),
		},
	}
}

// beforeAction configures logging from the operator configuration. The
// --debug flag overrides the configured level.
func beforeAction(c *cli.Context) error {
	level := slog.LevelInfo
	if config, err := configSource(c).Read(); err == nil {
		level = config.LogLevel
	}
	if c.Bool("debug") {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if !paths.IsRoot() {
		slog.Debug("not running as root, system paths may not be writable")
	}
	return nil
}

func configSource(c *cli.Context) *conf.ConfigSource {
	source := conf.DefaultSource()
	if c.IsSet("config") {
		source.Path = c.String("config")
	}
	if c.IsSet("config-dir") {
		source.DropInDir = c.String("config-dir")
	}
	return source
}
