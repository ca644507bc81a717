// ABOUTME: Tests for build version reporting
// ABOUTME: Checks the -version line and the linker-set Version variable
package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"default build", orig, "Walkie " + orig},
		{"release tag", "1.4.2", "Walkie 1.4.2"},
		{"git describe", "v0.3.0-5-gabc123", "Walkie v0.3.0-5-gabc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			if got := String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionSetForUnstampedBuilds(t *testing.T) {
	if strings.TrimSpace(Version) == "" {
		t.Fatal("Version must have a default when -ldflags does not set it")
	}
	if strings.ContainsAny(Version, " \t\n") {
		t.Errorf("Version %q contains whitespace", Version)
	}
}
