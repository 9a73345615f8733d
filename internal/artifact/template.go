package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/alessio/shellescape"
	"github.com/coreos/go-systemd/v22/unit"
)

// Template produces the content of one artifact from a render context.
type Template interface {
	Execute(w io.Writer, data map[string]any) error
}

type jsonTemplate struct {
	key string
}

// JSON returns a Template that writes data[key] as an indented JSON document.
func JSON(key string) Template {
	return jsonTemplate{key: key}
}

func (t jsonTemplate) Execute(w io.Writer, data map[string]any) error {
	value, ok := data[t.key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingData, t.key)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to encode %s: %w", t.key, err)
	}
	return nil
}

type textTemplate struct {
	tmpl *template.Template
}

// Funcs are available to every Text template. quote makes a value safe to
// assign in a file sourced by a POSIX shell.
var Funcs = template.FuncMap{
	"args":  Args,
	"quote": shellescape.Quote,
}

// Args joins the non-blank parts of a command line with single spaces.
func Args(parts ...string) string {
	var fields []string
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, part)
		}
	}
	return strings.Join(fields, " ")
}

// Text parses src as a text/template. Referencing a key missing from the
// render context is an error.
func Text(name, src string) (Template, error) {
	tmpl, err := template.New(name).Funcs(Funcs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return textTemplate{tmpl: tmpl}, nil
}

func (t textTemplate) Execute(w io.Writer, data map[string]any) error {
	if err := t.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", t.tmpl.Name(), err)
	}
	return nil
}

// EscapeSpecifiers doubles every % so systemd does not expand it as a
// unit specifier.
func EscapeSpecifiers(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// EscapeExec escapes s for an Exec*= command line: specifiers as in
// EscapeSpecifiers, and $ so systemd does not substitute environment
// variables.
func EscapeExec(s string) string {
	return strings.ReplaceAll(EscapeSpecifiers(s), "$", "$$")
}

// UnitFunc builds systemd unit options from a render context.
type UnitFunc func(data map[string]any) ([]*unit.UnitOption, error)

type unitTemplate struct {
	build  UnitFunc
	header string
}

// Unit returns a Template that serializes the options built by fn. header is
// written verbatim before the unit, one comment line per line.
func Unit(header string, fn UnitFunc) Template {
	return unitTemplate{build: fn, header: header}
}

func (t unitTemplate) Execute(w io.Writer, data map[string]any) error {
	opts, err := t.build(data)
	if err != nil {
		return err
	}

	if t.header != "" {
		for _, line := range strings.Split(strings.TrimRight(t.header, "\n"), "\n") {
			if _, err := fmt.Fprintf(w, "# %s\n", line); err != nil {
				return err
			}
		}
	}

	if _, err := io.Copy(w, unit.Serialize(opts)); err != nil {
		return fmt.Errorf("failed to serialize unit: %w", err)
	}
	return nil
}
