package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/urfave/cli/v2"

	"github.com/charmed-kubernetes/layer-docker/internal/dockeropts"
	"github.com/charmed-kubernetes/layer-docker/internal/overlay"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{raw: "true", want: true},
		{raw: "42", want: float64(42)},
		{raw: `"quoted"`, want: "quoted"},
		{raw: "journald", want: "journald"},
		{raw: `["a","b"]`, want: []any{"a", "b"}},
		{raw: `{"max-size":"10m"}`, want: map[string]any{"max-size": "10m"}},
		{raw: "null", want: nil},
		{raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseValue(tt.raw)); diff != "" {
				t.Errorf("parseValue(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestPrintDocument(t *testing.T) {
	document := map[string]any{
		"log-driver": "json-file",
		"log-opts":   map[string]any{"max-size": "10m"},
	}

	tests := []struct {
		format string
		want   string
	}{
		{
			format: "json",
			want: `{
  "log-driver": "json-file",
  "log-opts": {
    "max-size": "10m"
  }
}
`,
		},
		{
			format: "yaml",
			want: `log-driver: json-file
log-opts:
  max-size: 10m
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printDocument(&buf, document, tt.format); err != nil {
				t.Fatalf("printDocument: %v", err)
			}
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type testEnv struct {
	dir    string
	config string
	state  string
	daemon string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.toml"),
		state:  filepath.Join(dir, "state", "state.db"),
		daemon: filepath.Join(dir, "docker", "daemon.json"),
	}
	config := fmt.Sprintf(`daemon-opts = '{"log-driver": "json-file"}'

[paths]
daemon-json = %q
service = %q
defaults = %q
`, env.daemon, filepath.Join(dir, "docker.service.d", "10-layer-docker.conf"), filepath.Join(dir, "default", "docker"))
	if err := os.WriteFile(env.config, []byte(config), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return env
}

func (e *testEnv) run(args ...string) error {
	app := newApp()
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app.Run(append([]string{
		"docker-config",
		"--config", e.config,
		"--config-dir", filepath.Join(e.dir, "config.toml.d"),
		"--state", e.state,
	}, args...))
}

func (e *testEnv) readDaemon(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(e.daemon)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}

func TestSetAndDelete(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("set", "debug", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	want := `{
  "debug": true,
  "log-driver": "json-file"
}
`
	if diff := cmp.Diff(want, env.readDaemon(t)); diff != "" {
		t.Errorf("daemon.json after set mismatch (-want +got):\n%s", diff)
	}

	err := env.run("set", "log-driver", "journald")
	if code := exitCode(err); code != 1 {
		t.Errorf("overriding an operator key: exit code %d, want 1 (%v)", code, err)
	}

	if err := env.run("set", "log-driver", "json-file"); err != nil {
		t.Errorf("confirming an operator key: %v", err)
	}

	if err := env.run("delete", "debug"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want = `{
  "log-driver": "json-file"
}
`
	if diff := cmp.Diff(want, env.readDaemon(t)); diff != "" {
		t.Errorf("daemon.json after delete mismatch (-want +got):\n%s", diff)
	}

	store, err := overlay.OpenSQLite(env.state, nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()
	additions := map[string]any{}
	if _, err := store.Get(overlay.DaemonOptsAdditions, &additions); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(additions) != 0 {
		t.Errorf("additions = %v, want empty", additions)
	}
}

func TestUsageErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := [][]string{
		{"set", "debug"},
		{"delete"},
		{"show", "--format", "xml"},
		{"opts", "add"},
		{"opts", "rm"},
	}
	for _, args := range tests {
		if code := exitCode(env.run(args...)); code != 2 {
			t.Errorf("%v: exit code %d, want 2", args, code)
		}
	}
}

func TestOpts(t *testing.T) {
	env := newTestEnv(t)

	for _, args := range [][]string{
		{"opts", "add", "debug"},
		{"opts", "add", "label", "a,b"},
		{"opts", "add", "--strict", "log-opt", "tag=x,y"},
		{"opts", "rm", "debug"},
		{"opts", "add", "--strict", "experimental"},
	} {
		if err := env.run(args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	store, err := overlay.OpenSQLite(env.state, nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()
	opts, err := dockeropts.Load(store)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := opts.String(), "--experimental --label=a --label=b --log-opt=tag=x,y"; got != want {
		t.Errorf("options = %q, want %q", got, want)
	}
}

func TestRender(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("render", "--service"); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `{
  "log-driver": "json-file"
}
`
	if diff := cmp.Diff(want, env.readDaemon(t)); diff != "" {
		t.Errorf("daemon.json mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(env.dir, "docker.service.d", "10-layer-docker.conf")); err != nil {
		t.Errorf("service drop-in not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.dir, "default", "docker")); !os.IsNotExist(err) {
		t.Errorf("defaults file must not be written with --service")
	}
}

func TestShow(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("set", "debug", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}

	for _, args := range [][]string{
		{"show"},
		{"show", "--format", "yaml"},
		{"show", "--overlay"},
	} {
		if err := env.run(args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
}
