package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/charmed-kubernetes/layer-docker/internal/dockeropts"
	"github.com/charmed-kubernetes/layer-docker/internal/l10n"
)

func optsCommand() *cli.Command {
	return &cli.Command{
		Name:  "opts",
		Usage: l10n.T("manage extra dockerd command-line options"),
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     l10n.T("add an option; comma-separated values are split"),
				ArgsUsage: "KEY [VALUE]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "strict",
						Usage: l10n.T("store VALUE verbatim without splitting on commas"),
					},
				},
				Action: optsAddAction,
			},
			{
				Name:      "rm",
				Usage:     l10n.T("remove an option and all of its values"),
				ArgsUsage: "KEY",
				Action:    optsRemoveAction,
			},
			{
				Name:   "list",
				Usage:  l10n.T("print the options as passed to dockerd"),
				Action: optsListAction,
			},
		},
	}
}

// editOptions loads the stored options, applies fn and saves the result
// when fn reports a change.
func editOptions(c *cli.Context, fn func(opts *dockeropts.Options) bool) error {
	env, err := openEnvironment(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer env.Close()

	opts, err := dockeropts.Load(env.store)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if !fn(opts) {
		return nil
	}
	if err := opts.Save(env.store); err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Println(opts.String())
	return nil
}

func optsAddAction(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return cli.Exit(l10n.T("add requires KEY and an optional VALUE"), 2)
	}
	key, value := c.Args().Get(0), c.Args().Get(1)
	strict := c.Bool("strict")
	return editOptions(c, func(opts *dockeropts.Options) bool {
		if current, ok := opts.Get(key); ok {
			slog.Debug("option already set", "key", key, "values", current, "strict", strict)
		}
		if value == "" {
			opts.AddFlag(key)
		} else {
			opts.Add(key, value, strict)
		}
		return true
	})
}

func optsRemoveAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("rm requires exactly one argument: KEY"), 2)
	}
	key := c.Args().Get(0)
	return editOptions(c, func(opts *dockeropts.Options) bool {
		if !opts.Exists(key) {
			fmt.Println(l10n.T("%s is not set", key))
			return false
		}
		return opts.Pop(key)
	})
}

func optsListAction(c *cli.Context) error {
	return editOptions(c, func(opts *dockeropts.Options) bool {
		fmt.Println(opts.String())
		return false
	})
}
