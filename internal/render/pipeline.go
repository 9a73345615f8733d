package render

import (
	"fmt"
	"log/slog"

	"github.com/charmed-kubernetes/layer-docker/internal/aptsource"
	"github.com/charmed-kubernetes/layer-docker/internal/artifact"
	"github.com/charmed-kubernetes/layer-docker/internal/conf"
	"github.com/charmed-kubernetes/layer-docker/internal/dockeropts"
	"github.com/charmed-kubernetes/layer-docker/internal/overlay"
	"github.com/charmed-kubernetes/layer-docker/internal/proxy"
)

// ConfigReader reads the operator configuration.
type ConfigReader interface {
	Read() (conf.Config, error)
}

// AptResolver determines the package source for an operator configuration.
type AptResolver interface {
	Determine(config conf.Config) (aptsource.Descriptor, error)
}

// ProxyResolver returns the proxy settings of the environment.
type ProxyResolver interface {
	Settings() (proxy.Settings, error)
}

// DaemonWriter rewrites daemon.json. *daemonjson.Engine implements it.
type DaemonWriter interface {
	Write() (map[string]any, error)
}

// Config holds the collaborators of a Pipeline. All fields except Logger
// are required.
type Config struct {
	Source   ConfigReader
	Store    overlay.Store
	Daemon   DaemonWriter
	Apt      AptResolver
	Proxy    ProxyResolver
	Renderer artifact.Renderer
	Logger   *slog.Logger
}

// Pipeline renders daemon.json and the service artifact.
type Pipeline struct {
	source   ConfigReader
	store    overlay.Store
	daemon   DaemonWriter
	apt      AptResolver
	proxy    ProxyResolver
	renderer artifact.Renderer
	logger   *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		source:   cfg.Source,
		store:    cfg.Store,
		daemon:   cfg.Daemon,
		apt:      cfg.Apt,
		proxy:    cfg.Proxy,
		renderer: cfg.Renderer,
		logger:   logger,
	}
}

// Render writes daemon.json and then the service artifact: the systemd
// drop-in when service is true, the environment defaults file otherwise.
// Every input is gathered before the first write.
func (p *Pipeline) Render(service bool) error {
	config, err := p.source.Read()
	if err != nil {
		return err
	}

	source, err := p.apt.Determine(config)
	if err != nil {
		return fmt.Errorf("failed to determine package source: %w", err)
	}

	opts, err := dockeropts.Load(p.store)
	if err != nil {
		return err
	}

	env, err := p.proxy.Settings()
	if err != nil {
		return fmt.Errorf("failed to read proxy settings: %w", err)
	}
	proxies := proxy.Normalize(env, proxy.Settings{
		proxy.HTTPProxy:  config.HTTPProxy,
		proxy.HTTPSProxy: config.HTTPSProxy,
		proxy.NoProxy:    config.NoProxy,
	})

	if _, err := p.daemon.Write(); err != nil {
		return err
	}

	name, path := DefaultsTemplate, config.Paths.Defaults
	if service {
		name, path = ServiceTemplate, config.Paths.Service
	}

	data := Context(config, source, opts.String(), proxies, service)
	if err := p.renderer.Render(name, path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	p.logger.Debug("configuration rendered",
		"service", service,
		"apt_source", source.Kind,
		"docker_opts", data["docker_opts"],
	)
	return nil
}

// Context builds the render context of the service artifact.
func Context(config conf.Config, source aptsource.Descriptor, dockerOpts string, proxies proxy.Settings, service bool) map[string]any {
	return map[string]any{
		"docker_opts":           dockerOpts,
		"extra_opts":            config.DockerOpts,
		proxy.HTTPProxy:         proxies[proxy.HTTPProxy],
		proxy.HTTPSProxy:        proxies[proxy.HTTPSProxy],
		proxy.NoProxy:           proxies[proxy.NoProxy],
		"apt_source":            source.Kind,
		"distro":                source.Distro,
		"codename":              source.Codename,
		"runtime":               config.Runtime,
		"install_from_upstream": config.InstallFromUpstream,
		"service":               service,
	}
}
