// Package conf implements the operator configuration for layer-docker.
//
// # Usage
//
// The operator configuration is read on demand; nothing is loaded at
// package initialization:
//
//	cs := conf.DefaultSource()
//	config, err := cs.Read()
//
// For custom configuration loading (e.g., testing), build a ConfigSource:
//
//	cs := &conf.ConfigSource{
//	    Path:      "/custom/path/config.toml",
//	    DropInDir: "/custom/path/config.toml.d",
//	}
//
// # Load Order
//
// Config is loaded and applied in three layers:
//
//  1. In-memory defaults
//  2. Main config file: /etc/layer-docker/config.toml
//  3. Drop-in files: /etc/layer-docker/config.toml.d/*.toml, in lexicographic order
//
// # Baseline
//
// The daemon-opts setting holds a JSON object (comments and trailing commas
// allowed). It is the baseline daemon configuration: keys declared there
// always win over keys added at runtime. ConfigSource.Baseline re-reads all
// layers on every call so edits made by the operator take effect on the
// next write without restarting anything.
//
// # Internal Architecture
//
//   - configDTO: internal struct with pointer fields for TOML parsing.
//     Pointers allow distinguishing "not set" (nil) from "set to zero value".
//
//   - Config: public struct with value fields. Has Update() method
//     to apply DTO values.
//
//   - ConfigSource: orchestrates loading from multiple sources and manages
//     their merging.
package conf
