// Package dockeropts keeps the dockerd command-line options that are
// managed at runtime and serializes them into a single argument string.
package dockeropts

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/charmed-kubernetes/layer-docker/internal/overlay"
)

// Options maps flag names to their values. A flag with no values is
// rendered bare (--flag).
type Options struct {
	flags map[string][]string
}

// New returns an empty Options.
func New() *Options {
	return &Options{flags: map[string][]string{}}
}

// Load reads the options record from store. A missing record yields an
// empty Options.
func Load(store overlay.Store) (*Options, error) {
	o := New()
	if _, err := store.Get(overlay.DockerOpts, &o.flags); err != nil {
		return nil, fmt.Errorf("failed to load docker options: %w", err)
	}
	if o.flags == nil {
		o.flags = map[string][]string{}
	}
	return o, nil
}

// Save persists the options to store.
func (o *Options) Save(store overlay.Store) error {
	if err := store.Set(overlay.DockerOpts, o.flags); err != nil {
		return fmt.Errorf("failed to save docker options: %w", err)
	}
	return nil
}

// Add records value for key.
//
// An empty value makes key a bare flag, with or without strict. Otherwise
// value is split on commas and each element not already present is
// appended, so repeated flags such as --label accumulate. With strict set,
// value is kept verbatim as the only value of key; use it for values that
// contain commas themselves.
func (o *Options) Add(key, value string, strict bool) {
	key = strings.TrimLeft(key, "-")

	if strings.TrimSpace(value) == "" {
		o.AddFlag(key)
		return
	}

	if strict {
		o.flags[key] = []string{value}
		return
	}

	current := o.flags[key]
	for _, v := range strings.Split(value, ",") {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(current, v) {
			continue
		}
		current = append(current, v)
	}
	o.flags[key] = current
}

// AddFlag records key as a bare flag, replacing any values it had.
func (o *Options) AddFlag(key string) {
	o.flags[strings.TrimLeft(key, "-")] = nil
}

// Exists reports whether key has been added.
func (o *Options) Exists(key string) bool {
	_, ok := o.flags[strings.TrimLeft(key, "-")]
	return ok
}

// Get returns the values of key. Bare flags have no values.
func (o *Options) Get(key string) ([]string, bool) {
	values, ok := o.flags[strings.TrimLeft(key, "-")]
	return values, ok
}

// Pop removes key and reports whether it was present.
func (o *Options) Pop(key string) bool {
	key = strings.TrimLeft(key, "-")
	if _, ok := o.flags[key]; !ok {
		return false
	}
	delete(o.flags, key)
	return true
}

// String serializes the options as dockerd arguments. Flags are sorted by
// name; values keep the order in which they were added.
func (o *Options) String() string {
	keys := make([]string, 0, len(o.flags))
	for key := range o.flags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var args []string
	for _, key := range keys {
		values := o.flags[key]
		if len(values) == 0 {
			args = append(args, "--"+key)
			continue
		}
		for _, v := range values {
			args = append(args, fmt.Sprintf("--%s=%s", key, v))
		}
	}
	return strings.Join(args, " ")
}
