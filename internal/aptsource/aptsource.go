// Package aptsource decides which package source docker is installed from.
package aptsource

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ini "git.sr.ht/~spc/go-ini"

	"github.com/charmed-kubernetes/layer-docker/internal/conf"
)

// Package source kinds.
const (
	Apt      = "apt"
	Upstream = "upstream"
	Nvidia   = "nvidia"
)

// DefaultOSReleasePath is read to learn the distribution codename.
const DefaultOSReleasePath = "/etc/os-release"

// Descriptor identifies a package source.
type Descriptor struct {
	Kind      string
	Distro    string
	Codename  string
	KeyServer string
}

// String returns the source kind, the value rendered into templates.
func (d Descriptor) String() string {
	return d.Kind
}

// Resolver determines the Descriptor for an operator configuration.
type Resolver struct {
	OSReleasePath string
	Logger        *slog.Logger
}

// NewResolver returns a Resolver reading the host's os-release file.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{OSReleasePath: DefaultOSReleasePath, Logger: logger}
}

// Determine picks the source kind from config and fills in the host
// distribution. A missing os-release file leaves Distro and Codename empty.
func (r *Resolver) Determine(config conf.Config) (Descriptor, error) {
	d := Descriptor{Kind: Apt, KeyServer: config.AptKeyServer}
	switch {
	case config.InstallFromUpstream:
		d.Kind = Upstream
	case config.Runtime == Nvidia:
		d.Kind = Nvidia
	}

	release, err := r.readOSRelease()
	if err != nil {
		return Descriptor{}, err
	}
	d.Distro = release.Section.ID
	d.Codename = release.Section.VersionCodename

	return d, nil
}

type osRelease struct {
	Section struct {
		ID              string `ini:"ID"`
		VersionCodename string `ini:"VERSION_CODENAME"`
	} `ini:"os-release"`
}

// readOSRelease parses the os-release file. The file has no sections, so a
// synthetic one is prepended before handing it to the INI decoder.
func (r *Resolver) readOSRelease() (osRelease, error) {
	var release osRelease

	data, err := os.ReadFile(r.OSReleasePath)
	if err != nil {
		if os.IsNotExist(err) {
			r.Logger.Debug("os-release not found", "path", r.OSReleasePath)
			return release, nil
		}
		return release, fmt.Errorf("failed to read %s: %w", r.OSReleasePath, err)
	}

	var buf bytes.Buffer
	buf.WriteString("[os-release]\n")
	buf.Write(data)
	if err := ini.Unmarshal(buf.Bytes(), &release); err != nil {
		return release, fmt.Errorf("failed to parse %s: %w", r.OSReleasePath, err)
	}

	release.Section.ID = unquote(release.Section.ID)
	release.Section.VersionCodename = unquote(release.Section.VersionCodename)
	return release, nil
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
