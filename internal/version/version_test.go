// ABOUTME: Tests for version information
// ABOUTME: Checks the version string and where servers publish it
package version_test

import (
	"regexp"
	"testing"

	"github.com/audiospy/audiospy-go/internal/discovery"
	"github.com/audiospy/audiospy-go/internal/version"
	"github.com/audiospy/audiospy-go/pkg/audio"
)

func TestVersionIsSemver(t *testing.T) {
	semver := regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)
	if !semver.MatchString(version.Version) {
		t.Errorf("version %q is not semver", version.Version)
	}
}

func TestProductIsServiceName(t *testing.T) {
	if discovery.ServiceType != "_"+version.Product+"._tcp" {
		t.Errorf("service type %q does not match product %q", discovery.ServiceType, version.Product)
	}
}

func TestServerTXTCarriesVersion(t *testing.T) {
	txt := discovery.ServerTXT(audio.DefaultConfig())

	got, ok := discovery.TXTValue(txt, "version")
	if !ok || got != version.Version {
		t.Errorf("expected version=%s in %v", version.Version, txt)
	}
	format, ok := discovery.TXTValue(txt, "format")
	if !ok || format != "16/48000/2" {
		t.Errorf("expected format=16/48000/2 in %v", txt)
	}
}
