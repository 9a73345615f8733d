package artifact

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultFileMode is the permission mode of rendered files.
const DefaultFileMode os.FileMode = 0644

// Renderer writes the template called name to path using data as context.
type Renderer interface {
	Render(name, path string, data map[string]any) error
}

// FileRenderer implements Renderer for a fixed set of registered templates.
type FileRenderer struct {
	templates map[string]Template
	mode      os.FileMode
	logger    *slog.Logger
}

// NewFileRenderer creates a FileRenderer with no templates registered.
func NewFileRenderer(logger *slog.Logger) *FileRenderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileRenderer{
		templates: map[string]Template{},
		mode:      DefaultFileMode,
		logger:    logger,
	}
}

// Register makes t available under name, replacing any previous template.
func (r *FileRenderer) Register(name string, t Template) {
	r.templates[name] = t
}

// Render executes the named template and atomically replaces path with the
// result. Nothing is written when the template fails.
func (r *FileRenderer) Render(name, path string, data map[string]any) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	if err := WriteFile(path, buf.Bytes(), r.mode); err != nil {
		return err
	}

	r.logger.Info("rendered", "template", name, "path", path)
	return nil
}

// WriteFile writes data to path atomically using temp file + rename.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory of %s: %w", path, err)
	}

	// Create temp file in the same directory as target
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		tmpFile = nil
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	tmpFile = nil
	return nil
}
