// Package paths resolves where layer-docker keeps its state.
//
// Root keeps state under /var/lib/layer-docker. Unprivileged users (tests,
// dry runs on a workstation) fall back to the XDG state directory so that
// nothing needs root to run.
package paths

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/sys/unix"
)

const (
	// Name used for directory and file naming.
	name = "layer-docker"

	// SystemStateDir holds the overlay database when running as root.
	SystemStateDir = "/var/lib/" + name

	stateFile = "state.db"
)

// IsRoot reports whether the process runs with an effective UID of 0.
func IsRoot() bool {
	return unix.Geteuid() == 0
}

// State returns the overlay database path. A non-empty configured path
// always wins.
//
//	root:  /var/lib/layer-docker/state.db
//	other: $XDG_STATE_HOME/layer-docker/state.db
func State(configured string) string {
	if configured != "" {
		return configured
	}
	if IsRoot() {
		return filepath.Join(SystemStateDir, stateFile)
	}
	return filepath.Join(xdg.StateHome, name, stateFile)
}
