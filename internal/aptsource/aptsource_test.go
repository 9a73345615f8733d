package aptsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/charmed-kubernetes/layer-docker/internal/conf"
)

const jammy = `NAME="Ubuntu"
VERSION_ID="22.04"
ID=ubuntu
ID_LIKE=debian
VERSION_CODENAME=jammy
`

func TestDetermine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	if err := os.WriteFile(path, []byte(jammy), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r := NewResolver(nil)
	r.OSReleasePath = path

	tests := []struct {
		name   string
		config conf.Config
		want   Descriptor
	}{
		{
			name:   "distribution packages",
			config: conf.Config{Runtime: "auto", AptKeyServer: "hkp://keyserver.ubuntu.com:80"},
			want:   Descriptor{Kind: Apt, Distro: "ubuntu", Codename: "jammy", KeyServer: "hkp://keyserver.ubuntu.com:80"},
		},
		{
			name:   "upstream wins over runtime",
			config: conf.Config{InstallFromUpstream: true, Runtime: "nvidia"},
			want:   Descriptor{Kind: Upstream, Distro: "ubuntu", Codename: "jammy"},
		},
		{
			name:   "nvidia runtime",
			config: conf.Config{Runtime: "nvidia"},
			want:   Descriptor{Kind: Nvidia, Distro: "ubuntu", Codename: "jammy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Determine(tt.config)
			if err != nil {
				t.Fatalf("Determine: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Determine() mismatch (-want +got):\n%s", diff)
			}
			if got.String() != tt.want.Kind {
				t.Errorf("String() = %q, want %q", got.String(), tt.want.Kind)
			}
		})
	}
}

func TestDetermine_MissingOSRelease(t *testing.T) {
	r := NewResolver(nil)
	r.OSReleasePath = filepath.Join(t.TempDir(), "absent")

	got, err := r.Determine(conf.Config{})
	if err != nil {
		t.Fatalf("Determine: %v", err)
	}
	if diff := cmp.Diff(Descriptor{Kind: Apt}, got); diff != "" {
		t.Errorf("Determine() mismatch (-want +got):\n%s", diff)
	}
}
