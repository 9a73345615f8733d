package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/briandowns/spinner"
	systemd "github.com/coreos/go-systemd/v22/dbus"
	"github.com/godbus/dbus/v5"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/charmed-kubernetes/layer-docker/internal/l10n"
)

const accessDenied = "org.freedesktop.DBus.Error.AccessDenied"

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: l10n.T("write daemon.json and the docker service configuration"),
		Description: l10n.T(
			"Writes the effective daemon.json and then either the systemd drop-in (--service) " +
				"or the docker defaults file.",
		),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "service",
				Usage: l10n.T("write the systemd drop-in instead of the defaults file"),
			},
			&cli.BoolFlag{
				Name:  "reload",
				Usage: l10n.T("ask systemd to reload unit files afterwards"),
			},
		},
		Action: renderAction,
	}
}

func renderAction(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer env.Close()

	service := c.Bool("service")
	err = withSpinner(l10n.T(" Rendering docker configuration..."), func() error {
		return env.pipeline().Render(service)
	})
	if err != nil {
		return cli.Exit(err, 1)
	}

	written := env.config.Paths.Defaults
	if service {
		written = env.config.Paths.Service
	}
	fmt.Println(l10n.T("Wrote %s and %s", env.config.Paths.DaemonJSON, written))

	if c.Bool("reload") {
		if err := reloadSystemd(c.Context); err != nil {
			return cli.Exit(err, 1)
		}
		fmt.Println(l10n.T("Reloaded systemd unit files"))
	}
	return nil
}

// withSpinner runs fn while a spinner is shown on stderr. The spinner is
// only shown when stderr is a terminal.
func withSpinner(suffix string, fn func() error) error {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn()
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	s.Start()
	defer s.Stop()
	return fn()
}

// reloadSystemd asks the system manager to re-read unit files so that a
// changed drop-in takes effect on the next restart.
func reloadSystemd(ctx context.Context) error {
	conn, err := systemd.NewSystemConnectionContext(ctx)
	if err != nil {
		return fmt.Errorf("cannot connect to systemd: %w", err)
	}
	defer conn.Close()

	slog.Debug("reloading systemd unit files")
	if err := conn.ReloadContext(ctx); err != nil {
		var dbusErr dbus.Error
		if errors.As(err, &dbusErr) && dbusErr.Name == accessDenied {
			return fmt.Errorf("%s: %w", l10n.T("reloading systemd requires root privileges"), err)
		}
		return fmt.Errorf("cannot reload systemd: %w", err)
	}
	return nil
}
