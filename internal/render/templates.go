package render

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"

	"github.com/charmed-kubernetes/layer-docker/internal/artifact"
	"github.com/charmed-kubernetes/layer-docker/internal/daemonjson"
	"github.com/charmed-kubernetes/layer-docker/internal/proxy"
)

// Service artifact templates.
const (
	ServiceTemplate  = "docker.service"
	DefaultsTemplate = "docker.defaults"
)

// Dockerd is the daemon command line the service drop-in starts.
const Dockerd = "/usr/bin/dockerd -H fd:// --containerd=/run/containerd/containerd.sock"

const generatedHeader = "Generated by layer-docker. Manual changes will be overwritten."

//go:embed templates/docker.defaults
var defaultsTemplate string

// RegisterTemplates adds every template used by the pipeline and the daemon
// configuration engine to r.
func RegisterTemplates(r *artifact.FileRenderer) error {
	defaults, err := artifact.Text(DefaultsTemplate, defaultsTemplate)
	if err != nil {
		return err
	}

	r.Register(daemonjson.TemplateName, artifact.JSON(daemonjson.ContextKey))
	r.Register(DefaultsTemplate, defaults)
	r.Register(ServiceTemplate, artifact.Unit(generatedHeader, serviceUnit))
	return nil
}

// serviceUnit builds the docker.service drop-in. ExecStart is cleared first
// so the drop-in replaces the packaged command line instead of adding one.
// Values are escaped so systemd passes them to dockerd verbatim.
func serviceUnit(data map[string]any) ([]*unit.UnitOption, error) {
	str := func(key string) (string, error) {
		v, ok := data[key].(string)
		if !ok {
			return "", fmt.Errorf("%w: %s", artifact.ErrMissingData, key)
		}
		return v, nil
	}

	var opts []*unit.UnitOption
	for _, key := range []string{proxy.HTTPProxy, proxy.HTTPSProxy, proxy.NoProxy} {
		value, err := str(key)
		if err != nil {
			return nil, err
		}
		if value == "" {
			continue
		}
		for _, name := range []string{strings.ToUpper(key), key} {
			assignment := strconv.Quote(name + "=" + artifact.EscapeSpecifiers(value))
			opts = append(opts, unit.NewUnitOption("Service", "Environment", assignment))
		}
	}

	dockerOpts, err := str("docker_opts")
	if err != nil {
		return nil, err
	}
	extraOpts, err := str("extra_opts")
	if err != nil {
		return nil, err
	}

	opts = append(opts,
		unit.NewUnitOption("Service", "ExecStart", ""),
		unit.NewUnitOption("Service", "ExecStart", artifact.EscapeExec(artifact.Args(Dockerd, dockerOpts, extraOpts))),
	)
	return opts, nil
}
