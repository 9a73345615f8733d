package main

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/charmed-kubernetes/layer-docker/internal/aptsource"
	"github.com/charmed-kubernetes/layer-docker/internal/artifact"
	"github.com/charmed-kubernetes/layer-docker/internal/conf"
	"github.com/charmed-kubernetes/layer-docker/internal/daemonjson"
	"github.com/charmed-kubernetes/layer-docker/internal/overlay"
	"github.com/charmed-kubernetes/layer-docker/internal/paths"
	"github.com/charmed-kubernetes/layer-docker/internal/proxy"
	"github.com/charmed-kubernetes/layer-docker/internal/render"
)

// environment wires the collaborators of one command invocation. The
// overlay store is opened once and shared by every component.
type environment struct {
	source   *conf.ConfigSource
	config   conf.Config
	store    *overlay.SQLiteStore
	renderer *artifact.FileRenderer
	engine   *daemonjson.Engine
}

func openEnvironment(c *cli.Context) (*environment, error) {
	source := configSource(c)
	config, err := source.Read()
	if err != nil {
		return nil, err
	}

	statePath := c.String("state")
	if statePath == "" {
		statePath = paths.State(config.Paths.State)
	}
	store, err := overlay.OpenSQLite(statePath, slog.Default())
	if err != nil {
		return nil, err
	}

	renderer := artifact.NewFileRenderer(slog.Default())
	if err := render.RegisterTemplates(renderer); err != nil {
		store.Close()
		return nil, err
	}

	engine := daemonjson.New(daemonjson.Config{
		Baseline: source,
		Store:    store,
		Renderer: renderer,
		Path:     config.Paths.DaemonJSON,
		Logger:   slog.Default(),
	})

	return &environment{
		source:   source,
		config:   config,
		store:    store,
		renderer: renderer,
		engine:   engine,
	}, nil
}

func (e *environment) pipeline() *render.Pipeline {
	return render.New(render.Config{
		Source:   e.source,
		Store:    e.store,
		Daemon:   e.engine,
		Apt:      aptsource.NewResolver(slog.Default()),
		Proxy:    proxy.NewEnvResolver(),
		Renderer: e.renderer,
		Logger:   slog.Default(),
	})
}

func (e *environment) Close() error {
	return e.store.Close()
}
