package daemonjson

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/go-cmp/cmp"

	"github.com/charmed-kubernetes/layer-docker/internal/artifact"
	"github.com/charmed-kubernetes/layer-docker/internal/overlay"
)

// TemplateName is the renderer template used for daemon.json.
const TemplateName = "daemon.json"

// ContextKey is the render context key holding the effective configuration.
const ContextKey = "daemon_opts"

// BaselineSource provides the operator baseline. Implementations must not
// cache: every call reflects the operator configuration at that moment.
type BaselineSource interface {
	Baseline() (map[string]any, error)
}

// Config holds the collaborators of an Engine. All fields except Logger
// are required.
type Config struct {
	Baseline BaselineSource
	Store    overlay.Store
	Renderer artifact.Renderer

	// Path is where daemon.json is written.
	Path string

	Logger *slog.Logger
}

// Engine merges the operator baseline with the persisted additions and
// writes the result to daemon.json.
type Engine struct {
	baseline BaselineSource
	store    overlay.Store
	renderer artifact.Renderer
	path     string
	logger   *slog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		baseline: cfg.Baseline,
		store:    cfg.Store,
		renderer: cfg.Renderer,
		path:     cfg.Path,
		logger:   logger,
	}
}

// Merge returns additions overlaid by baseline. Neither argument is modified.
func Merge(baseline, additions map[string]any) map[string]any {
	effective := make(map[string]any, len(baseline)+len(additions))
	for k, v := range additions {
		effective[k] = v
	}
	for k, v := range baseline {
		effective[k] = v
	}
	return effective
}

// Additions returns the persisted additions. A missing record is an empty
// mapping.
func (e *Engine) Additions() (map[string]any, error) {
	additions := map[string]any{}
	if _, err := e.store.Get(overlay.DaemonOptsAdditions, &additions); err != nil {
		return nil, fmt.Errorf("failed to read daemon option additions: %w", err)
	}
	if additions == nil {
		additions = map[string]any{}
	}
	return additions, nil
}

// Effective computes the effective configuration without writing it.
func (e *Engine) Effective() (map[string]any, error) {
	baseline, err := e.baseline.Baseline()
	if err != nil {
		return nil, err
	}
	additions, err := e.Additions()
	if err != nil {
		return nil, err
	}
	return Merge(baseline, additions), nil
}

// Write computes the effective configuration, renders it to daemon.json and
// returns it.
func (e *Engine) Write() (map[string]any, error) {
	effective, err := e.Effective()
	if err != nil {
		return nil, err
	}

	if err := e.renderer.Render(TemplateName, e.path, map[string]any{ContextKey: effective}); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", e.path, err)
	}

	return effective, nil
}

// Set adds key with value to the additions and rewrites daemon.json.
//
// When key belongs to the baseline, nothing is persisted: an equal value
// is accepted and daemon.json is rewritten, a different value is refused
// and Set returns ok == false with a nil error.
func (e *Engine) Set(key string, value any) (effective map[string]any, ok bool, err error) {
	value, err = normalize(value)
	if err != nil {
		return nil, false, fmt.Errorf("invalid value for %s: %w", key, err)
	}

	baseline, err := e.baseline.Baseline()
	if err != nil {
		return nil, false, err
	}

	if current, found := baseline[key]; found {
		if !cmp.Equal(current, value) {
			e.logger.Warn("refusing to override daemon option set by the operator",
				"key", key,
				"operator_value", current,
				"requested_value", value,
			)
			return nil, false, nil
		}
		e.logger.Debug("daemon option already set by the operator", "key", key)
	} else {
		additions, err := e.Additions()
		if err != nil {
			return nil, false, err
		}
		additions[key] = value
		if err := e.store.Set(overlay.DaemonOptsAdditions, additions); err != nil {
			return nil, false, fmt.Errorf("failed to save daemon option additions: %w", err)
		}
		e.logger.Info("daemon option added", "key", key)
	}

	effective, err = e.Write()
	if err != nil {
		return nil, false, err
	}
	return effective, true, nil
}

// Delete removes key from the additions and rewrites daemon.json. It reports
// false, and changes nothing, when key is not an addition. Baseline keys are
// never additions.
func (e *Engine) Delete(key string) (bool, error) {
	additions, err := e.Additions()
	if err != nil {
		return false, err
	}
	if _, found := additions[key]; !found {
		return false, nil
	}

	delete(additions, key)
	if err := e.store.Set(overlay.DaemonOptsAdditions, additions); err != nil {
		return false, fmt.Errorf("failed to save daemon option additions: %w", err)
	}
	e.logger.Info("daemon option removed", "key", key)

	// The addition is gone even if the rewrite fails.
	if _, err := e.Write(); err != nil {
		return true, err
	}
	return true, nil
}

// normalize round-trips value through JSON so that it compares equal to
// decoded baseline values (numbers become float64, structs become maps).
func normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}
