package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/charmed-kubernetes/layer-docker/internal/l10n"
	"github.com/charmed-kubernetes/layer-docker/internal/overlay"
)

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     l10n.T("add or change a daemon.json setting"),
		ArgsUsage: "KEY VALUE",
		Description: l10n.T(
			"VALUE is parsed as JSON; anything that is not valid JSON is stored as a string. " +
				"Keys set by the operator in daemon-opts cannot be changed.",
		),
		Action: setAction,
	}
}

func setAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit(l10n.T("set requires exactly two arguments: KEY VALUE"), 2)
	}
	key := c.Args().Get(0)
	value := parseValue(c.Args().Get(1))

	env, err := openEnvironment(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer env.Close()

	effective, ok, err := env.engine.Set(key, value)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if !ok {
		return cli.Exit(l10n.T("%s is set in daemon-opts and cannot be overridden", key), 1)
	}
	return printDocument(os.Stdout, effective, "json")
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     l10n.T("remove a daemon.json setting added with set"),
		ArgsUsage: "KEY",
		Action:    deleteAction,
	}
}

func deleteAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("delete requires exactly one argument: KEY"), 2)
	}
	key := c.Args().Get(0)

	env, err := openEnvironment(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer env.Close()

	removed, err := env.engine.Delete(key)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if !removed {
		fmt.Println(l10n.T("%s is not an added setting", key))
		return nil
	}
	fmt.Println(l10n.T("Removed %s", key))
	return nil
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: l10n.T("print the effective daemon.json settings"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Value: "json",
				Usage: l10n.T("print as `FORMAT` (json or yaml)"),
			},
			&cli.BoolFlag{
				Name:  "overlay",
				Usage: l10n.T("print only the settings added with set"),
			},
		},
		Action: showAction,
	}
}

func showAction(c *cli.Context) error {
	format := c.String("format")
	if format != "json" && format != "yaml" {
		return cli.Exit(l10n.T("unsupported format: %s", format), 2)
	}

	env, err := openEnvironment(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer env.Close()

	var document map[string]any
	if c.Bool("overlay") {
		document, err = env.engine.Additions()
	} else {
		document, err = env.engine.Effective()
	}
	if err != nil {
		return cli.Exit(err, 1)
	}

	if c.Bool("overlay") {
		n := len(document)
		fmt.Fprintln(os.Stderr, l10n.TN("%d added setting in %s", "%d added settings in %s", uint32(n), n, env.store.Path()))
		if revision, ok, err := env.store.Revision(overlay.DaemonOptsAdditions); err == nil && ok {
			fmt.Fprintln(os.Stderr, l10n.T("revision %s", revision))
		}
	}
	return printDocument(os.Stdout, document, format)
}

// parseValue interprets a command-line value as JSON. Values that are not
// valid JSON are used as plain strings.
func parseValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

func printDocument(w io.Writer, document map[string]any, format string) error {
	if document == nil {
		document = map[string]any{}
	}
	switch strings.ToLower(format) {
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(document); err != nil {
			return err
		}
		return encoder.Close()
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(document)
	}
}
