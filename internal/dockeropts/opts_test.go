package dockeropts

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/charmed-kubernetes/layer-docker/internal/overlay"
)

func TestOptions_String(t *testing.T) {
	tests := []struct {
		name  string
		build func(o *Options)
		want  string
	}{
		{
			name:  "empty",
			build: func(o *Options) {},
			want:  "",
		},
		{
			name: "bare flag",
			build: func(o *Options) {
				o.Add("debug", "", false)
			},
			want: "--debug",
		},
		{
			name: "sorted by flag name",
			build: func(o *Options) {
				o.Add("log-level", "warn", false)
				o.Add("bip", "172.17.0.1/16", false)
				o.Add("--debug", "", false)
			},
			want: "--bip=172.17.0.1/16 --debug --log-level=warn",
		},
		{
			name: "multi-value flags accumulate without duplicates",
			build: func(o *Options) {
				o.Add("label", "foo, bar", false)
				o.Add("label", "bar,baz", false)
			},
			want: "--label=foo --label=bar --label=baz",
		},
		{
			name: "strict keeps commas",
			build: func(o *Options) {
				o.Add("cluster-store", "consul://a:4001,b:4001/swarm", true)
			},
			want: "--cluster-store=consul://a:4001,b:4001/swarm",
		},
		{
			name: "strict without value is a bare flag",
			build: func(o *Options) {
				o.Add("icc", "false", false)
				o.Add("icc", "", true)
				o.Add("--experimental", " ", true)
			},
			want: "--experimental --icc",
		},
		{
			name: "AddFlag drops values",
			build: func(o *Options) {
				o.Add("label", "a,b", false)
				o.AddFlag("--label")
				o.AddFlag("debug")
			},
			want: "--debug --label",
		},
		{
			name: "pop removes flag",
			build: func(o *Options) {
				o.Add("debug", "", false)
				o.Add("iptables", "false", false)
				o.Pop("debug")
			},
			want: "--iptables=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New()
			tt.build(o)
			if got := o.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			// Serialization must be stable across calls.
			if again := o.String(); again != tt.want {
				t.Errorf("second String() = %q, want %q", again, tt.want)
			}
		})
	}
}

func TestOptions_ExistsGetPop(t *testing.T) {
	o := New()
	o.Add("label", "a,b", false)

	if !o.Exists("label") || !o.Exists("--label") {
		t.Error("expected label to exist")
	}
	values, ok := o.Get("label")
	if !ok {
		t.Fatal("expected label to be present")
	}
	if diff := cmp.Diff([]string{"a", "b"}, values); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	if !o.Pop("label") {
		t.Error("Pop() = false for a present flag")
	}
	if o.Pop("label") {
		t.Error("Pop() = true for an absent flag")
	}
	if o.Exists("label") {
		t.Error("label still exists after Pop")
	}
}

func TestLoadSave(t *testing.T) {
	store := overlay.NewMemoryStore()

	o, err := Load(store)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if o.String() != "" {
		t.Errorf("expected empty options, got %q", o.String())
	}

	o.Add("debug", "", false)
	o.Add("insecure-registry", "registry.local:5000", false)
	if err := o.Save(store); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(store)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := loaded.String(), "--debug --insecure-registry=registry.local:5000"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
